package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TimeoutProvider is a decorator that bounds every request with a deadline.
// There is no retry: a request that runs out of time fails.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps a Provider with a per-request deadline. A non-positive
// timeout returns p unchanged.
func WithTimeout(p Provider, timeout time.Duration) Provider {
	if timeout <= 0 {
		return p
	}
	return &TimeoutProvider{inner: p, timeout: timeout}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.inner.Generate(ctx, req)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		var unavail *ErrProviderUnavailable
		if !errors.As(err, &unavail) {
			err = &ErrProviderUnavailable{Err: fmt.Errorf("no response within %s: %w", t.timeout, err)}
		}
	}
	return resp, err
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
