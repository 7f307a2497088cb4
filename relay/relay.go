// Package relay defines the action delivery interface.
//
// A Relay sits between the extractor and the downstream sinks (workspace
// materializer, persistent store, SSE stream). It controls batching and
// flush timing but never reorders, drops, or mutates actions. Relay failure
// terminates the turn.
package relay

import (
	"context"
	"sync"

	"github.com/codeloom-io/loom/types"
)

// Relay delivers extracted actions to a sink.
//
// Contract:
//   - Actions are delivered in extraction order.
//   - No action is ever dropped or mutated.
//   - Deliver may buffer; Flush forces all buffered actions downstream.
//   - Relay failure terminates the turn.
type Relay interface {
	// Deliver handles a batch of newly extracted actions.
	// May buffer. Returns error on failure (terminates the turn).
	Deliver(ctx context.Context, actions []*types.Action) error

	// Flush forces any buffered actions downstream.
	// Called on stream completion, transport failure, or shutdown.
	Flush(ctx context.Context) error

	// Close cleans up relay resources.
	Close() error

	// Stats returns relay statistics for observability.
	// Returns an atomic snapshot; all counters are consistent with each other.
	Stats() Stats
}

// Stats represents relay observability metrics.
type Stats struct {
	// ActionsReceived is the total number of actions handed to Deliver.
	ActionsReceived int64
	// ActionsDelivered is the number of actions written to the sink.
	ActionsDelivered int64
	// DeliveredByKind maps action kinds to delivery counts.
	DeliveredByKind map[types.ActionKind]int64
	// BufferedActions is the current number of buffered actions.
	BufferedActions int64
	// FlushCount is the number of flush operations.
	FlushCount int64
	// Errors is the count of sink write failures encountered.
	Errors int64
}

// statsRecorder is an internal helper for thread-safe stats management.
// Relays call explicit methods to record mutations; the recorder does not
// infer or automate any relay decisions.
//
// Lock discipline:
//   - LiveRelay uses the locking methods (incReceived, snapshot, etc.)
//   - BufferedRelay uses the Locked methods (incReceivedLocked,
//     snapshotLocked, etc.) only while holding BufferedRelay.mu, keeping
//     buffer state and stats counters atomic with each other.
type statsRecorder struct {
	mu    sync.Mutex
	stats Stats
}

// newStatsRecorder creates a recorder with an initialized DeliveredByKind map.
func newStatsRecorder() *statsRecorder {
	return &statsRecorder{
		stats: Stats{
			DeliveredByKind: make(map[types.ActionKind]int64),
		},
	}
}

func (r *statsRecorder) incReceived(n int64) {
	r.mu.Lock()
	r.stats.ActionsReceived += n
	r.mu.Unlock()
}

func (r *statsRecorder) incDelivered(actions []*types.Action) {
	r.mu.Lock()
	r.incDeliveredLocked(actions)
	r.mu.Unlock()
}

func (r *statsRecorder) incErrors() {
	r.mu.Lock()
	r.stats.Errors++
	r.mu.Unlock()
}

func (r *statsRecorder) incFlush() {
	r.mu.Lock()
	r.stats.FlushCount++
	r.mu.Unlock()
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.stats
	s.DeliveredByKind = make(map[types.ActionKind]int64, len(r.stats.DeliveredByKind))
	for k, v := range r.stats.DeliveredByKind {
		s.DeliveredByKind[k] = v
	}
	return s
}

// --- Locked methods for BufferedRelay ---
// Caller must hold BufferedRelay.mu.

func (r *statsRecorder) incReceivedLocked(n int64) {
	r.stats.ActionsReceived += n
}

func (r *statsRecorder) incDeliveredLocked(actions []*types.Action) {
	r.stats.ActionsDelivered += int64(len(actions))
	for _, a := range actions {
		r.stats.DeliveredByKind[a.Kind]++
	}
}

func (r *statsRecorder) incErrorsLocked() {
	r.stats.Errors++
}

func (r *statsRecorder) incFlushLocked() {
	r.stats.FlushCount++
}

// snapshotLocked returns an atomic snapshot with the given buffer depth.
// Caller must hold BufferedRelay.mu.
func (r *statsRecorder) snapshotLocked(buffered int64) Stats {
	s := r.stats
	s.BufferedActions = buffered
	s.DeliveredByKind = make(map[types.ActionKind]int64, len(r.stats.DeliveredByKind))
	for k, v := range r.stats.DeliveredByKind {
		s.DeliveredByKind[k] = v
	}
	return s
}
