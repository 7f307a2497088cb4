package relay

import (
	"context"
	"sync"

	"github.com/codeloom-io/loom/types"
)

// Sink abstracts a downstream consumer of delivered actions.
// Implementations materialize actions into a workspace, persist them to
// storage, or push them to a live client stream.
//
// Methods are batch-oriented to support both live (batch of 1+) and
// buffered relays.
type Sink interface {
	// ApplyActions consumes a batch of actions.
	// Must preserve ordering within the batch.
	// Returns error on failure; the relay decides whether to retry or fail.
	ApplyActions(ctx context.Context, actions []*types.Action) error

	// Close releases any resources held by the sink.
	Close() error
}

// Multi fans one delivery out to several sinks in order.
// The first sink failure aborts the batch; later sinks do not see it.
type Multi struct {
	sinks []Sink
}

// NewMulti creates a fan-out sink. Order matters: sinks receive each batch
// in the order given here.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// ApplyActions forwards the batch to every sink in order.
func (m *Multi) ApplyActions(ctx context.Context, actions []*types.Action) error {
	for _, s := range m.sinks {
		if err := s.ApplyActions(ctx, actions); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all sinks, returning the first error encountered.
func (m *Multi) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// StubSink is a test sink that accepts actions without consuming them.
// Tracks write statistics for test assertions.
type StubSink struct {
	mu sync.Mutex

	// ActionsApplied is the total count of actions applied.
	ActionsApplied int64
	// Batches is the number of ApplyActions calls.
	Batches int64
	// Closed indicates whether Close was called.
	Closed bool

	// Applied stores all applied actions for inspection.
	Applied []*types.Action

	// ErrorOnApply, if non-nil, is returned by ApplyActions.
	ErrorOnApply error
}

// NewStubSink creates a stub sink for testing.
func NewStubSink() *StubSink {
	return &StubSink{Applied: make([]*types.Action, 0)}
}

// ApplyActions records the actions without consuming them.
func (s *StubSink) ApplyActions(_ context.Context, actions []*types.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ErrorOnApply != nil {
		return s.ErrorOnApply
	}

	s.Batches++
	s.ActionsApplied += int64(len(actions))
	s.Applied = append(s.Applied, actions...)

	return nil
}

// Close marks the sink as closed.
func (s *StubSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Closed = true
	return nil
}

// Snapshot returns a copy of the applied actions for inspection.
func (s *StubSink) Snapshot() []*types.Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Action, len(s.Applied))
	copy(out, s.Applied)
	return out
}

var (
	_ Sink = (*Multi)(nil)
	_ Sink = (*StubSink)(nil)
)
