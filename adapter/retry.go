package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultRetries is the default number of publish retry attempts.
const DefaultRetries = 3

// backoffBase is the delay before the first retry; each further retry
// doubles it. A var so the package tests can shorten it.
var backoffBase = 500 * time.Millisecond

// permanentError marks a publish failure that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Retry returns it immediately instead of backing
// off. A nil err stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry runs publish up to 1+retries times, sleeping with exponential
// backoff between attempts. Context cancellation aborts the loop, including
// mid-backoff. An error wrapped by Permanent ends the loop and is returned
// unwrapped.
func Retry(ctx context.Context, retries int, publish func(ctx context.Context) error) error {
	attempts := 1 + retries
	var lastErr error

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context canceled: %w", err)
		}

		if i > 0 {
			backoff := backoffBase << uint(i-1)
			select {
			case <-ctx.Done():
				return fmt.Errorf("context canceled during backoff: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		lastErr = publish(ctx)
		if lastErr == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
