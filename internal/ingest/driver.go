package ingest

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docgen/internal/apperr"
	"docgen/internal/embedder"
	"docgen/internal/store"
)

// embeddingModelKey is the meta key tracking which model produced the
// stored vectors.
const embeddingModelKey = "embedding_model"

// DriverStore is the store subset the batch driver mutates.
type DriverStore interface {
	ListChunksByStatus(statuses ...store.ChunkStatus) ([]store.ChunkText, error)
	SetEmbedding(chunkID string, vec []float32) error
	MarkFailed(chunkID, reason string) error
	ResetEmbeddings() error
	GetMeta(key string) (string, error)
	SetMeta(key, value string) error
}

// DriverStats tallies one embedding run.
type DriverStats struct {
	Total    int
	Embedded int64
	Failed   int64
	Skipped  int64
}

// Driver embeds pending and failed chunks with bounded concurrency against
// the embedding provider. Embedded chunks are never touched again unless the
// model changes or a re-embed is requested explicitly.
type Driver struct {
	store    DriverStore
	emb      embedder.Embedder
	workers  int
	maxChars int
	log      *zap.SugaredLogger
}

// NewDriver creates a batch driver. workers bounds concurrent provider
// requests; maxChars truncates chunk text before embedding.
func NewDriver(st DriverStore, emb embedder.Embedder, workers, maxChars int, log *zap.SugaredLogger) *Driver {
	if workers <= 0 {
		workers = 1
	}
	return &Driver{store: st, emb: emb, workers: workers, maxChars: maxChars, log: log}
}

// Run embeds all chunks in pending or failed state. Input rejections mark
// the chunk failed and continue; connection-level provider failures abort
// the run so the operator can retry once the provider is back. A chunk that
// vanished mid-run (report deleted concurrently) is skipped, not an error.
func (d *Driver) Run(ctx context.Context) (DriverStats, error) {
	if err := d.checkModel(); err != nil {
		return DriverStats{}, err
	}

	chunks, err := d.store.ListChunksByStatus(store.StatusPending, store.StatusFailed)
	if err != nil {
		return DriverStats{}, err
	}

	stats := DriverStats{Total: len(chunks)}
	if len(chunks) == 0 {
		return stats, nil
	}
	d.log.Infow("embedding chunks", "total", stats.Total, "workers", d.workers, "model", d.emb.ModelName())

	var embedded, failed, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for _, c := range chunks {
		g.Go(func() error {
			text := c.Text
			if d.maxChars > 0 {
				text = truncateRunes(text, d.maxChars)
			}

			vec, err := d.emb.Embed(gctx, text)
			if err != nil {
				if apperr.Retryable(err) || errors.Is(err, context.Canceled) {
					return err
				}
				// The provider rejected this input; record and move on.
				if mfErr := d.store.MarkFailed(c.ID, err.Error()); mfErr != nil && !errors.Is(mfErr, apperr.ErrNotFound) {
					return mfErr
				}
				failed.Add(1)
				d.log.Warnw("chunk embedding failed", "chunk_id", c.ID, "error", err)
				return nil
			}

			if err := d.store.SetEmbedding(c.ID, vec); err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					skipped.Add(1)
					d.log.Debugw("chunk vanished during embedding", "chunk_id", c.ID)
					return nil
				}
				return err
			}
			embedded.Add(1)
			return nil
		})
	}

	runErr := g.Wait()
	stats.Embedded = embedded.Load()
	stats.Failed = failed.Load()
	stats.Skipped = skipped.Load()
	if runErr != nil {
		return stats, runErr
	}

	if err := d.store.SetMeta(embeddingModelKey, d.emb.ModelName()); err != nil {
		return stats, err
	}
	return stats, nil
}

// checkModel resets all embeddings when the configured model differs from
// the one that produced the stored vectors; vectors from different models
// are not comparable.
func (d *Driver) checkModel() error {
	last, err := d.store.GetMeta(embeddingModelKey)
	if err != nil {
		return err
	}
	if last != "" && last != d.emb.ModelName() {
		d.log.Infow("embedding model changed, re-embedding all chunks",
			"previous", last, "current", d.emb.ModelName())
		return d.store.ResetEmbeddings()
	}
	return nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
