package providers

import (
	"context"
	"errors"
	"time"

	"github.com/lvonguyen/costintel/internal/costerrors"
)

// WithRetry retries fn up to maxAttempts times with exponential backoff
// when it returns a ThrottlingError, per spec.md §5 ("Retries: exponential
// backoff with three attempts on transient errors"). Non-transient errors
// (anything else) surface immediately without retry. This is stdlib-only by
// design: no pack repo ships a generic (non-AWS-SDK) retry helper, so this
// is the justified standard-library exception noted in DESIGN.md — AWS's
// own adapter instead uses aws-sdk-go-v2's built-in retry.NewStandard().
func WithRetry[T any](ctx context.Context, maxAttempts int, fn func(attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		val, err := fn(attempt)
		if err == nil {
			return val, nil
		}
		lastErr = err

		var throttled *costerrors.ThrottlingError
		if !errors.As(err, &throttled) {
			return zero, err
		}
		if attempt == maxAttempts {
			break
		}

		backoff := time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}
