// Package generate implements document synthesis: a brief plus retrieved
// context in, a structured document out. Rendering to a concrete artifact
// (PDF, markdown) is the Renderer collaborator's job; this package's contract
// ends at the structured document.
package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docgen/internal/apperr"
	"docgen/internal/config"
	"docgen/internal/llm"
	"docgen/internal/search"
	"docgen/internal/store"
)

// State names a phase of a generation call. Each call moves strictly forward;
// no state is re-entered.
type State string

const (
	StateReceived            State = "RECEIVED"
	StateRetrieving          State = "RETRIEVING"
	StateSynthesizing        State = "SYNTHESIZING"
	StateSynthesized         State = "SYNTHESIZED"
	StateInsufficientContext State = "INSUFFICIENT_CONTEXT"
	StateModelFailed         State = "MODEL_FAILED"
)

// Request is an ephemeral generation request.
type Request struct {
	Brief string
	// SearchResults is the number of supporting chunks to retrieve;
	// 0 means the configured default.
	SearchResults int
	// Format is the requested output format token, opaque here and passed
	// through to the renderer.
	Format string
}

// SourceRef points at a chunk that grounded the document. It carries no
// chunk text: references are by identifier and a later chunk deletion
// invalidates them rather than freezing a copy.
type SourceRef struct {
	ChunkID    string  `json:"chunk_id"`
	ReportID   string  `json:"report_id"`
	Heading    string  `json:"heading"`
	PageRange  string  `json:"page_range"`
	Similarity float64 `json:"similarity"`
}

// Document is the generation result handed to the renderer. It is not
// mutated after creation; a failed render does not invalidate it.
type Document struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	Citations   []string    `json:"citations"`
	Sources     []SourceRef `json:"sources"`
	GeneratedAt time.Time   `json:"generated_at"`
	Format      string      `json:"format"`
}

// Renderer turns a Document into a concrete artifact and returns its
// location. Render errors are surfaced to callers unchanged.
type Renderer interface {
	Render(doc *Document) (string, error)
}

// Retriever is the search capability the generator depends on.
type Retriever interface {
	Search(ctx context.Context, q search.Query) ([]store.SearchResult, error)
}

// Generator orchestrates retrieval, prompt construction, and the model call.
type Generator struct {
	retriever      Retriever
	completer      llm.Completer
	retry          config.RetryConfig
	defaultResults int
	log            *zap.SugaredLogger
}

// New creates a Generator. defaultResults applies when a request leaves
// SearchResults unset.
func New(retriever Retriever, completer llm.Completer, retry config.RetryConfig, defaultResults int, log *zap.SugaredLogger) *Generator {
	if defaultResults <= 0 {
		defaultResults = 3
	}
	return &Generator{
		retriever:      retriever,
		completer:      completer,
		retry:          retry,
		defaultResults: defaultResults,
		log:            log,
	}
}

// titleBriefLimit caps how much of the brief enters the derived title.
const titleBriefLimit = 50

// Generate runs one synthesis call: validate, retrieve, prompt, complete,
// assemble. Zero retrieved chunks fail with apperr.ErrInsufficientContext
// before any model call. Transient model failures are retried with bounded
// exponential backoff; the model's sampling non-determinism is accepted, so
// a retried call may produce different output for the same prompt.
func (g *Generator) Generate(ctx context.Context, req Request) (*Document, error) {
	brief := strings.TrimSpace(req.Brief)
	if brief == "" {
		return nil, fmt.Errorf("%w: brief is empty", apperr.ErrInvalidArgument)
	}
	numResults := req.SearchResults
	if numResults == 0 {
		numResults = g.defaultResults
	}
	if numResults < 0 {
		return nil, fmt.Errorf("%w: search_results must be positive, got %d", apperr.ErrInvalidArgument, numResults)
	}
	g.log.Debugw("generation state", "state", StateReceived, "brief_len", len(brief))

	g.log.Debugw("generation state", "state", StateRetrieving, "top_n", numResults)
	results, err := g.retriever.Search(ctx, search.Query{Text: brief, TopN: numResults})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		g.log.Infow("generation state", "state", StateInsufficientContext)
		return nil, fmt.Errorf("%w: no embedded chunks matched the brief", apperr.ErrInsufficientContext)
	}

	g.log.Debugw("generation state", "state", StateSynthesizing, "chunks", len(results))
	prompt := BuildPrompt(brief, results)
	body, err := g.completeWithRetry(ctx, prompt)
	if err != nil {
		g.log.Warnw("generation state", "state", StateModelFailed, "error", err)
		return nil, err
	}

	citations := make([]string, len(results))
	sources := make([]SourceRef, len(results))
	for i, r := range results {
		citations[i] = r.ChunkID
		sources[i] = SourceRef{
			ChunkID:    r.ChunkID,
			ReportID:   r.ReportID,
			Heading:    r.Heading,
			PageRange:  r.PageRange,
			Similarity: r.Score,
		}
	}

	doc := &Document{
		ID:          uuid.NewString(),
		Title:       "Synthesized Report: " + truncateRunes(brief, titleBriefLimit),
		Body:        body,
		Citations:   citations,
		Sources:     sources,
		GeneratedAt: time.Now().UTC(),
		Format:      req.Format,
	}
	g.log.Infow("generation state", "state", StateSynthesized, "document_id", doc.ID, "citations", len(citations))
	return doc, nil
}

// completeWithRetry calls the model, retrying only transient failures
// (unavailable, timeout) with doubling backoff up to the configured cap.
// Input rejections are never retried.
func (g *Generator) completeWithRetry(ctx context.Context, prompt string) (string, error) {
	backoff := g.retry.InitialBackoff()
	maxAttempts := g.retry.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		out, err := g.completer.Complete(ctx, prompt, llm.Options{})
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !apperr.Retryable(err) || attempt == maxAttempts {
			return "", err
		}

		g.log.Warnw("model call retrying",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"backoff", backoff.String(),
			"error", err,
		)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if max := g.retry.MaxBackoff(); max > 0 && backoff > max {
			backoff = max
		}
	}
	return "", lastErr
}
