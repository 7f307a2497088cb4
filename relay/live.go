package relay

import (
	"context"

	"github.com/codeloom-io/loom/log"
	"github.com/codeloom-io/loom/types"
)

// LiveRelay forwards every batch to the sink immediately.
//
// This is the default for interactive turns: actions reach the workspace
// and the client stream as soon as the extractor finds them. A sink write
// failure fails the delivery, and the turn with it.
type LiveRelay struct {
	sink   Sink
	logger *log.Logger
	stats  *statsRecorder
}

// NewLiveRelay creates a live relay. Logger may be nil.
func NewLiveRelay(sink Sink, logger *log.Logger) *LiveRelay {
	return &LiveRelay{
		sink:   sink,
		logger: logger,
		stats:  newStatsRecorder(),
	}
}

// Deliver writes the batch straight through to the sink.
func (r *LiveRelay) Deliver(ctx context.Context, actions []*types.Action) error {
	if len(actions) == 0 {
		return nil
	}

	r.stats.incReceived(int64(len(actions)))

	if err := r.sink.ApplyActions(ctx, actions); err != nil {
		r.stats.incErrors()
		if r.logger != nil {
			r.logger.Error("live delivery failed", map[string]any{
				"actions": len(actions),
				"error":   err.Error(),
				"relay":   "live",
			})
		}
		return err
	}

	r.stats.incDelivered(actions)
	return nil
}

// Flush is a no-op: a live relay holds nothing back.
func (r *LiveRelay) Flush(_ context.Context) error {
	r.stats.incFlush()
	return nil
}

// Close closes the sink.
func (r *LiveRelay) Close() error {
	return r.sink.Close()
}

// Stats returns relay statistics.
func (r *LiveRelay) Stats() Stats {
	return r.stats.snapshot()
}

var _ Relay = (*LiveRelay)(nil)
