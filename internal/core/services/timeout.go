package services

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

// withTimeout runs fn under a deadline. A deadline hit is reported as
// *domain.TimeoutError naming op; a cancelled parent context is returned as is.
func withTimeout(ctx context.Context, op string, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(tctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return &domain.TimeoutError{Op: op, Timeout: timeout}
	}
	return err
}
