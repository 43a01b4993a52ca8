// Package embedder wraps the external embedding provider behind a narrow
// capability boundary. The store is the cache of record; nothing here caches
// or re-embeds on its own.
package embedder

import "context"

// Embedder converts text into a fixed-dimension vector.
type Embedder interface {
	// Embed returns the embedding for a single text. Failures are classified
	// as apperr.ErrProviderUnavailable, apperr.ErrTimeout, or
	// apperr.ErrProviderError.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch embeds several texts in one provider call. The returned
	// slice has the same length and order as the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the provider's fixed vector dimensionality.
	Dimensions() int
	// ModelName returns the configured embedding model name.
	ModelName() string
}
