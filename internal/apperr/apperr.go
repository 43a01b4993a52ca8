// Package apperr defines the error taxonomy shared by the retrieval and
// generation orchestrators. Callers match with errors.Is; orchestrators wrap
// with fmt.Errorf("%w: ...") so raw transport errors never escape.
package apperr

import "errors"

var (
	// ErrInvalidArgument marks malformed caller input. Never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks a referenced entity that no longer exists. Benign in
	// concurrent contexts (e.g. a report deleted mid-embedding).
	ErrNotFound = errors.New("not found")

	// ErrProviderUnavailable marks a connection-level failure of an external
	// service. Eligible for bounded retry with backoff.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderError marks an external service rejecting a specific input.
	// Retrying the same input will not help, so it is never retried.
	ErrProviderError = errors.New("provider error")

	// ErrTimeout marks an external call that exceeded the caller's deadline.
	// Eligible for bounded retry with backoff.
	ErrTimeout = errors.New("timeout")

	// ErrInsufficientContext marks a generation request whose retrieval step
	// produced zero usable chunks. Surfaced distinctly so the caller can
	// broaden the brief instead of retrying.
	ErrInsufficientContext = errors.New("insufficient context")

	// ErrIngestion marks a malformed chunk batch. The whole batch is rejected,
	// never partially applied.
	ErrIngestion = errors.New("ingestion error")

	// ErrRetrieval wraps provider failures raised while answering a search,
	// so search callers see a retrieval failure rather than a bare transport
	// error. The provider error stays in the chain for errors.Is.
	ErrRetrieval = errors.New("retrieval failed")
)

// Retryable reports whether err is a transient infrastructure failure that a
// bounded backoff retry may resolve.
func Retryable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable) || errors.Is(err, ErrTimeout)
}
