// Package search implements the retrieval side of the pipeline: a raw query
// string in, a ranked and size-bounded result set out. The whole operation is
// read-only on the store.
package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"docgen/internal/apperr"
	"docgen/internal/embedder"
	"docgen/internal/rank"
	"docgen/internal/store"
)

// Query is an ephemeral search request.
type Query struct {
	Text string
	// TopN is the requested result count; 0 means the configured default.
	TopN int
	// Year restricts candidates to reports published in that year.
	Year *int
}

// CandidateStore is the store subset the searcher reads from.
type CandidateStore interface {
	QueryEmbedded(year *int) ([]store.Candidate, error)
}

// Searcher answers semantic search queries against the chunk store.
type Searcher struct {
	store       CandidateStore
	emb         embedder.Embedder
	defaultTopN int
	log         *zap.SugaredLogger
}

// New creates a Searcher. defaultTopN applies when a query leaves TopN unset.
func New(st CandidateStore, emb embedder.Embedder, defaultTopN int, log *zap.SugaredLogger) *Searcher {
	if defaultTopN <= 0 {
		defaultTopN = 5
	}
	return &Searcher{store: st, emb: emb, defaultTopN: defaultTopN, log: log}
}

// Search embeds the query text, scores all embedded chunks matching the
// optional year filter, and returns the topN most similar, best first.
// Provider failures while embedding the query surface as
// apperr.ErrRetrieval wrapping the provider error.
func (s *Searcher) Search(ctx context.Context, q Query) ([]store.SearchResult, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: query text is empty", apperr.ErrInvalidArgument)
	}
	topN := q.TopN
	if topN == 0 {
		topN = s.defaultTopN
	}
	if topN < 0 {
		return nil, fmt.Errorf("%w: topN must be positive, got %d", apperr.ErrInvalidArgument, topN)
	}

	queryVec, err := s.emb.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", apperr.ErrRetrieval, err)
	}

	candidates, err := s.store.QueryEmbedded(q.Year)
	if err != nil {
		return nil, fmt.Errorf("query embedded chunks: %w", err)
	}

	results, err := rank.Rank(queryVec, candidates, topN)
	if err != nil {
		return nil, err
	}

	s.log.Debugw("search completed",
		"query_len", len(text),
		"candidates", len(candidates),
		"results", len(results),
		"top_n", topN,
	)
	return results, nil
}
