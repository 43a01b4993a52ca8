// Package llm wraps the external language-model service. Generation output
// is sampled, so two calls with the identical prompt may differ; that
// non-determinism lives behind this boundary and tests substitute a
// deterministic stub.
package llm

import "context"

// Options configures a single completion call. Zero values fall back to the
// client's configured defaults.
type Options struct {
	// Model overrides the client's default model identifier.
	Model string
	// MaxTokens caps the output length.
	MaxTokens int
	// Temperature controls sampling randomness.
	Temperature float64
}

// Completer produces text from a prompt.
type Completer interface {
	// Complete returns the model's output for the prompt. Failures are
	// classified as apperr.ErrProviderUnavailable, apperr.ErrTimeout, or
	// apperr.ErrProviderError (including model-not-found).
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
	// ModelName returns the default model identifier.
	ModelName() string
}
