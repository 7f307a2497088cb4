package runtime

import (
	"context"

	"github.com/codeloom-io/loom/relay"
	"github.com/codeloom-io/loom/types"
)

// ObserverFunc adapts a plain callback to the relay.Sink interface.
// Used to tap the delivery fan-out for live streaming (SSE) without a
// dedicated sink type. The callback sees action batches after the
// materializer has updated their statuses.
type ObserverFunc func(ctx context.Context, actions []*types.Action) error

// ApplyActions invokes the callback.
func (f ObserverFunc) ApplyActions(ctx context.Context, actions []*types.Action) error {
	return f(ctx, actions)
}

// Close is a no-op.
func (f ObserverFunc) Close() error {
	return nil
}

var _ relay.Sink = (ObserverFunc)(nil)
