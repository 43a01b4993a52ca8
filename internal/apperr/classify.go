package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ClassifyTransport maps a transport-level failure from an external provider
// call into the taxonomy. Deadline hits become ErrTimeout, everything else
// connection-shaped becomes ErrProviderUnavailable. Caller cancellation is
// passed through untouched so it is never retried as a provider fault.
func ClassifyTransport(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, op, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, op, err)
}
