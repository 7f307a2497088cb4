package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codeloom-io/loom/extract"
	"github.com/codeloom-io/loom/log"
	"github.com/codeloom-io/loom/metrics"
	"github.com/codeloom-io/loom/model"
	"github.com/codeloom-io/loom/relay"
	"github.com/codeloom-io/loom/store"
	"github.com/codeloom-io/loom/types"
)

// TurnConfig configures a single turn.
type TurnConfig struct {
	// Meta is the turn identity and lineage metadata.
	Meta *types.TurnMeta
	// Prompt is the user prompt sent to the model.
	Prompt string
	// Streamer is the model transport.
	Streamer model.Streamer
	// Relay delivers extracted actions downstream.
	Relay relay.Relay
	// Materializer is the workspace sink, consulted for the result summary.
	// Must also be wired into the relay's sink fan-out. May be nil.
	Materializer *Materializer
	// Tree is the workspace file tree, consulted for the result summary.
	// May be nil.
	Tree *FileTree
	// Store persists the turn's final result record. May be nil; the
	// per-batch action segments go through the relay's store sink instead.
	Store *store.Store
	// Collector records turn metrics. If nil, no metrics are recorded.
	Collector *metrics.Collector
}

// TurnResult is the terminal state of one executed turn.
type TurnResult struct {
	// Meta is the turn identity and lineage.
	Meta *types.TurnMeta
	// Outcome is the turn outcome classification.
	Outcome *types.TurnOutcome
	// Duration is the total turn duration.
	Duration time.Duration
	// ContainerTitle is the artifact title from the container action.
	ContainerTitle string
	// ActionCount is the number of actions extracted.
	ActionCount int64
	// Files summarizes the materialized workspace, sorted by path.
	Files []types.FileRecord
	// Commands holds executed command results in order.
	Commands []*CommandResult
	// RelayStats is the final relay statistics snapshot.
	RelayStats relay.Stats
}

// deliveryError marks an error raised by relay delivery inside the stream
// callback, so the orchestrator can tell a sink failure apart from a
// transport failure after Stream returns.
type deliveryError struct {
	err error
}

func (e *deliveryError) Error() string { return e.err.Error() }
func (e *deliveryError) Unwrap() error { return e.err }

// TurnOrchestrator executes one turn end-to-end: it streams the model
// response through the extractor and delivers each batch of newly
// discovered actions through the relay as the stream arrives.
type TurnOrchestrator struct {
	config    *TurnConfig
	logger    *log.Logger
	startTime time.Time
}

// NewTurnOrchestrator creates a turn orchestrator.
// Returns an error if the turn metadata is invalid.
func NewTurnOrchestrator(config *TurnConfig) (*TurnOrchestrator, error) {
	if err := config.Meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid turn metadata: %w", err)
	}

	return &TurnOrchestrator{
		config: config,
		logger: log.NewLogger(config.Meta),
	}, nil
}

// Execute runs the turn.
//
// Flow:
//  1. Stream the model response; feed every chunk to the extractor and
//     deliver newly discovered actions through the relay.
//  2. Finalize the extractor and deliver any residual actions.
//  3. Flush the relay (best effort, always, on every termination path).
//  4. Classify the outcome and persist the result record.
//
// The returned error is reserved for orchestration failures; turn-level
// failures (transport, store) are reported in the result's outcome.
func (o *TurnOrchestrator) Execute(ctx context.Context) (*TurnResult, error) {
	o.startTime = time.Now()
	o.config.Collector.IncTurnStarted()

	o.logger.Info("starting turn", map[string]any{
		"provider": o.config.Streamer.Name(),
	})

	extractor := extract.New()

	streamErr := o.config.Streamer.Stream(ctx, o.config.Prompt, func(ctx context.Context, chunk []byte) error {
		o.config.Collector.AddChunk(len(chunk))
		actions := extractor.Feed(string(chunk))
		if len(actions) == 0 {
			return nil
		}
		if err := o.config.Relay.Deliver(ctx, actions); err != nil {
			return &deliveryError{err: err}
		}
		return nil
	})

	// A delivery failure surfaces as the stream error because the callback
	// aborts the stream. Unwrap it so the transport error path stays clean.
	var deliverErr error
	var de *deliveryError
	if errors.As(streamErr, &de) {
		deliverErr = de.err
		streamErr = nil
	}

	// Finalize always runs: actions extracted before a transport failure
	// remain valid and must still be delivered.
	if residual := extractor.Finalize(); len(residual) > 0 && deliverErr == nil {
		if err := o.config.Relay.Deliver(ctx, residual); err != nil {
			deliverErr = err
		}
	}

	// Best-effort flush on every termination path. WithoutCancel keeps
	// context values while ignoring parent cancellation, so buffered
	// actions still drain after a canceled turn.
	flushCtx, flushCancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	flushErr := o.config.Relay.Flush(flushCtx)
	flushCancel()
	if flushErr != nil {
		o.logger.Warn("relay flush failed (best effort)", map[string]any{
			"error": flushErr.Error(),
		})
		if deliverErr == nil {
			deliverErr = flushErr
		}
	}

	actionCount := len(extractor.Actions())
	outcome := classifyOutcome(streamErr, deliverErr, actionCount)

	if streamErr != nil {
		o.logger.Error("model stream failed", map[string]any{
			"error":             streamErr.Error(),
			"actions_extracted": actionCount,
		})
	}

	// Persist the result record even for failed turns so the partition is
	// self-describing. A write failure here escalates the outcome.
	if o.config.Store != nil {
		if err := o.writeResult(ctx, outcome, actionCount); err != nil {
			o.logger.Error("result write failed", map[string]any{
				"error": err.Error(),
			})
			if outcome.Status == types.OutcomeCompleted || outcome.Status == types.OutcomeEmptyOutput {
				outcome = &types.TurnOutcome{
					Status:  types.OutcomeStoreFailure,
					Message: fmt.Sprintf("result write failed: %v", err),
				}
			}
		}
	}

	result := o.buildResult(outcome, extractor, int64(actionCount))

	o.logger.Info("turn finished", map[string]any{
		"outcome":  string(outcome.Status),
		"actions":  actionCount,
		"duration": result.Duration.String(),
	})
	return result, nil
}

// writeResult persists the turn result record with summary counters.
func (o *TurnOrchestrator) writeResult(ctx context.Context, outcome *types.TurnOutcome, actionCount int) error {
	snap := o.config.Collector.Snapshot()
	record := &store.TurnRecord{
		Status:         string(outcome.Status),
		Message:        outcome.Message,
		TurnID:         o.config.Meta.TurnID,
		SessionID:      o.config.Meta.SessionID,
		ParentTurnID:   o.config.Meta.ParentTurnID,
		Attempt:        o.config.Meta.Attempt,
		ActionCount:    int64(actionCount),
		FilesWritten:   snap.FilesWritten,
		CommandsRun:    snap.CommandsRun,
		CommandsFailed: snap.CommandsFailed,
		BytesReceived:  snap.BytesReceived,
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	return o.config.Store.WriteResult(writeCtx, record)
}

// buildResult assembles the terminal result and records outcome metrics.
func (o *TurnOrchestrator) buildResult(outcome *types.TurnOutcome, extractor *extract.Extractor, actionCount int64) *TurnResult {
	result := &TurnResult{
		Meta:        o.config.Meta,
		Outcome:     outcome,
		Duration:    time.Since(o.startTime),
		ActionCount: actionCount,
		RelayStats:  o.config.Relay.Stats(),
	}

	if root, ok := extractor.Root(); ok {
		result.ContainerTitle = root.Title
	}
	if o.config.Materializer != nil {
		result.Commands = o.config.Materializer.Commands()
		if result.ContainerTitle == "" {
			result.ContainerTitle = o.config.Materializer.ContainerTitle()
		}
	}
	if o.config.Tree != nil {
		result.Files = o.config.Tree.Snapshot()
	}

	switch outcome.Status {
	case types.OutcomeCompleted:
		o.config.Collector.IncTurnCompleted()
	case types.OutcomeEmptyOutput:
		o.config.Collector.IncTurnEmpty()
	case types.OutcomeTransportFailure:
		o.config.Collector.IncTurnTransportFailed()
	case types.OutcomeStoreFailure:
		o.config.Collector.IncTurnStoreFailed()
	}

	rs := result.RelayStats
	byKind := make(map[string]int64, len(rs.DeliveredByKind))
	for k, v := range rs.DeliveredByKind {
		byKind[string(k)] = v
	}
	o.config.Collector.AbsorbRelayStats(rs.ActionsReceived, rs.ActionsDelivered, byKind)
	o.config.Collector.AddUnknownDropped(int64(extractor.Skipped()))

	return result
}
