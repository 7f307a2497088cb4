package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/codeloom-io/loom/log"
	"github.com/codeloom-io/loom/types"
)

// BufferedConfig configures a BufferedRelay.
type BufferedConfig struct {
	// FlushCount triggers a flush after N actions accumulate.
	// Zero means count-based flush is disabled.
	FlushCount int

	// FlushInterval triggers a flush every interval.
	// Zero means interval-based flush is disabled.
	FlushInterval time.Duration

	// Logger is an optional logger for relay observability.
	Logger *log.Logger
}

// FlushTrigger identifies which trigger caused a flush.
type FlushTrigger string

const (
	// FlushTriggerCount indicates a count-threshold flush.
	FlushTriggerCount FlushTrigger = "count"
	// FlushTriggerInterval indicates an interval-based flush.
	FlushTriggerInterval FlushTrigger = "interval"
	// FlushTriggerTermination indicates a turn termination flush.
	FlushTriggerTermination FlushTrigger = "termination"
)

// ErrBufferedInvalidConfig is returned when BufferedConfig is invalid.
var ErrBufferedInvalidConfig = errors.New("invalid buffered config: at least one of FlushCount or FlushInterval must be set")

// BufferedRelay accumulates actions and writes them in batches.
//
// Suited to batch turns (replay, bulk regeneration) where per-action sink
// round-trips are wasteful. Guarantees:
//   - No drops: every delivered action reaches the sink exactly once on the
//     success path, at least once across flush retries.
//   - Ordering: batches preserve extraction order; a failed flush restores
//     the buffer ahead of any newly delivered actions.
//
// Thread safety:
//   - mu guards buffer state and stats.
//   - flushMu serializes flush operations so the interval goroutine and the
//     count trigger never write concurrently.
type BufferedRelay struct {
	sink   Sink
	config BufferedConfig
	logger *log.Logger

	mu     sync.Mutex // guards buffer state and stats
	buffer []*types.Action
	stats  *statsRecorder

	// flushMu serializes flush operations.
	flushMu sync.Mutex

	// flushByCount et al track how many times each trigger fired. Guarded by mu.
	flushByCount       int64
	flushByInterval    int64
	flushByTermination int64

	// stopCh signals the interval goroutine to stop.
	stopCh chan struct{}
	// stopped indicates Close has been called. Guarded by mu.
	stopped bool
}

// NewBufferedRelay creates a buffered relay.
// Returns error if config is invalid.
func NewBufferedRelay(sink Sink, config BufferedConfig) (*BufferedRelay, error) {
	if config.FlushCount <= 0 && config.FlushInterval <= 0 {
		return nil, ErrBufferedInvalidConfig
	}

	r := &BufferedRelay{
		sink:   sink,
		config: config,
		logger: config.Logger,
		buffer: make([]*types.Action, 0, 64),
		stats:  newStatsRecorder(),
		stopCh: make(chan struct{}),
	}

	if config.FlushInterval > 0 {
		go r.intervalLoop()
	}

	return r, nil
}

// Deliver appends the batch to the buffer.
// If the count threshold is reached, triggers a flush.
func (r *BufferedRelay) Deliver(ctx context.Context, actions []*types.Action) error {
	if len(actions) == 0 {
		return nil
	}

	r.mu.Lock()
	r.stats.incReceivedLocked(int64(len(actions)))
	r.buffer = append(r.buffer, actions...)
	shouldFlush := r.config.FlushCount > 0 && len(r.buffer) >= r.config.FlushCount
	r.mu.Unlock()

	if shouldFlush {
		return r.triggerFlush(ctx, FlushTriggerCount)
	}

	return nil
}

// Flush flushes all buffered actions (turn termination trigger).
func (r *BufferedRelay) Flush(ctx context.Context) error {
	return r.triggerFlush(ctx, FlushTriggerTermination)
}

// triggerFlush performs a flush with the given trigger reason.
// Serialized by flushMu to prevent concurrent sink writes.
//
// Strategy: swap the buffer under mu, write outside mu, restore on failure.
// Deliver can keep appending to a fresh buffer during the write without
// blocking on the sink.
func (r *BufferedRelay) triggerFlush(ctx context.Context, trigger FlushTrigger) error {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	r.mu.Lock()

	switch trigger {
	case FlushTriggerCount:
		r.flushByCount++
	case FlushTriggerInterval:
		r.flushByInterval++
	case FlushTriggerTermination:
		r.flushByTermination++
	}

	r.stats.incFlushLocked()

	batch := r.buffer
	if len(batch) == 0 {
		r.mu.Unlock()
		return nil
	}

	// Install a fresh buffer so delivery can continue during the write.
	r.buffer = make([]*types.Action, 0, 64)
	r.mu.Unlock()

	if err := r.sink.ApplyActions(ctx, batch); err != nil {
		// Restore the batch ahead of anything delivered meanwhile.
		r.mu.Lock()
		r.stats.incErrorsLocked()
		r.buffer = append(batch, r.buffer...)
		r.mu.Unlock()
		r.logFlushFailure(trigger, err)
		return err
	}

	r.mu.Lock()
	r.stats.incDeliveredLocked(batch)
	r.mu.Unlock()

	r.logFlush(trigger, len(batch))
	return nil
}

// Close stops the interval goroutine, flushes, and closes the sink.
func (r *BufferedRelay) Close() error {
	r.mu.Lock()
	if !r.stopped {
		r.stopped = true
		close(r.stopCh)
	}
	r.mu.Unlock()

	// Best-effort flush on close
	_ = r.Flush(context.Background())
	return r.sink.Close()
}

// Stats returns relay statistics.
// The buffer mutex is held while taking the snapshot, so counters and
// buffer depth are consistent with each other.
func (r *BufferedRelay) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stats.snapshotLocked(int64(len(r.buffer)))
}

// FlushTriggerStats returns per-trigger flush counts for observability.
func (r *BufferedRelay) FlushTriggerStats() map[FlushTrigger]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return map[FlushTrigger]int64{
		FlushTriggerCount:       r.flushByCount,
		FlushTriggerInterval:    r.flushByInterval,
		FlushTriggerTermination: r.flushByTermination,
	}
}

// intervalLoop runs in a goroutine and flushes on the configured interval.
func (r *BufferedRelay) intervalLoop() {
	ticker := time.NewTicker(r.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			hasData := len(r.buffer) > 0
			r.mu.Unlock()

			if hasData {
				// Best-effort interval flush; errors logged, retried next trigger
				_ = r.triggerFlush(context.Background(), FlushTriggerInterval)
			}
		case <-r.stopCh:
			return
		}
	}
}

// --- Logging helpers ---

func (r *BufferedRelay) logFlush(trigger FlushTrigger, actions int) {
	if r.logger == nil {
		return
	}
	r.logger.Info("buffered flush", map[string]any{
		"trigger": string(trigger),
		"actions": actions,
		"relay":   "buffered",
	})
}

func (r *BufferedRelay) logFlushFailure(trigger FlushTrigger, err error) {
	if r.logger == nil {
		return
	}
	r.logger.Error("buffered flush failed", map[string]any{
		"trigger": string(trigger),
		"error":   err.Error(),
		"relay":   "buffered",
	})
}

var _ Relay = (*BufferedRelay)(nil)
