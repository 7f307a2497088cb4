package store

import (
	"context"

	"github.com/codeloom-io/loom/metrics"
	"github.com/codeloom-io/loom/relay"
	"github.com/codeloom-io/loom/types"
)

// Sink adapts a Store to the relay.Sink interface, persisting each
// delivered batch as a segment.
type Sink struct {
	store     *Store
	meta      *types.TurnMeta
	collector *metrics.Collector
}

// NewSink creates a store-backed relay sink. Collector may be nil.
func NewSink(store *Store, meta *types.TurnMeta, collector *metrics.Collector) *Sink {
	return &Sink{store: store, meta: meta, collector: collector}
}

// ApplyActions persists the batch as one segment.
func (s *Sink) ApplyActions(ctx context.Context, actions []*types.Action) error {
	if err := s.store.WriteActions(ctx, s.meta, actions); err != nil {
		s.collector.IncStoreWriteFailure()
		return err
	}
	s.collector.IncStoreWriteSuccess()
	return nil
}

// Close closes the underlying store.
func (s *Sink) Close() error {
	return s.store.Close()
}

var _ relay.Sink = (*Sink)(nil)
