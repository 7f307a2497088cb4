package model

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/codeloom-io/loom/log"
)

// DefaultRetries is the default number of retry attempts.
const DefaultRetries = 3

// Resilient wraps a Streamer with retry on transport failure.
//
// A retry is only attempted while the stream has produced no chunks: once
// the first fragment reaches the consumer, downstream state (extractor
// buffer, materialized files) reflects the partial response and a silent
// restart would duplicate it. Failures after first chunk surface directly.
type Resilient struct {
	inner   Streamer
	retries int
	logger  *log.Logger
}

// NewResilient wraps a streamer with up to retries additional attempts.
// A negative retries falls back to DefaultRetries. Logger may be nil.
func NewResilient(inner Streamer, retries int, logger *log.Logger) *Resilient {
	if retries < 0 {
		retries = DefaultRetries
	}
	return &Resilient{inner: inner, retries: retries, logger: logger}
}

// Stream issues the prompt, retrying with exponential backoff on retriable
// transport errors that occur before any chunk is delivered.
func (r *Resilient) Stream(ctx context.Context, prompt string, onChunk ChunkFunc) error {
	var lastErr error
	attempts := 1 + r.retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stream: context canceled: %w", err)
		}

		// Exponential backoff before retries (not before first attempt)
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return fmt.Errorf("stream: context canceled during backoff: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		var delivered atomic.Bool
		lastErr = r.inner.Stream(ctx, prompt, func(ctx context.Context, chunk []byte) error {
			delivered.Store(true)
			return onChunk(ctx, chunk)
		})
		if lastErr == nil {
			return nil
		}

		if delivered.Load() {
			// Partial response already consumed; restart would duplicate it.
			return lastErr
		}
		if !IsRetriable(lastErr) {
			return lastErr
		}

		if r.logger != nil {
			r.logger.Warn("stream attempt failed, retrying", map[string]any{
				"attempt":  i + 1,
				"provider": r.inner.Name(),
				"error":    lastErr.Error(),
			})
		}
	}

	return fmt.Errorf("stream: failed after %d attempts: %w", attempts, lastErr)
}

// Name identifies the wrapped provider.
func (r *Resilient) Name() string {
	return r.inner.Name()
}

var _ Streamer = (*Resilient)(nil)
