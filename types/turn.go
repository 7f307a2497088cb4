//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"fmt"
)

// TurnMeta contains turn identity and lineage metadata.
// One turn is one full request/response cycle with the model and the unit
// of extractor lifetime.
type TurnMeta struct {
	// TurnID is the canonical turn identifier. Must be globally unique.
	TurnID string
	// SessionID groups the turns of one browser session. May be nil for
	// one-shot CLI invocations.
	SessionID *string
	// ParentTurnID links regenerated turns to their predecessor. Nil for
	// initial turns.
	ParentTurnID *string
	// Attempt is the attempt number. Starts at 1 for initial turns.
	Attempt int
}

// Validate validates lineage rules:
//   - attempt >= 1
//   - attempt == 1 => parent_turn_id must be nil (initial turn)
//   - attempt > 1 => parent_turn_id must be present (regenerated turn)
func (t *TurnMeta) Validate() error {
	if t.TurnID == "" {
		return errors.New("turn_id must be non-empty")
	}

	if t.Attempt < 1 {
		return fmt.Errorf("attempt must be >= 1, got %d", t.Attempt)
	}

	if t.Attempt == 1 && t.ParentTurnID != nil {
		return errors.New("initial turn (attempt=1) must not have parent_turn_id")
	}

	if t.Attempt > 1 && t.ParentTurnID == nil {
		return fmt.Errorf("regenerated turn (attempt=%d) must have parent_turn_id", t.Attempt)
	}

	return nil
}

// OutcomeStatus represents the final status of a turn.
type OutcomeStatus string

const (
	// OutcomeCompleted indicates the stream ended cleanly and at least one
	// action was extracted.
	OutcomeCompleted OutcomeStatus = "completed"
	// OutcomeEmptyOutput indicates the stream ended cleanly with zero
	// extracted actions (model refusal or non-markup reply).
	OutcomeEmptyOutput OutcomeStatus = "empty_output"
	// OutcomeTransportFailure indicates the model transport failed.
	// Actions extracted before the failure remain valid.
	OutcomeTransportFailure OutcomeStatus = "transport_failure"
	// OutcomeStoreFailure indicates persistence failed after extraction.
	OutcomeStoreFailure OutcomeStatus = "store_failure"
)

// TurnOutcome represents the final outcome of a turn.
type TurnOutcome struct {
	// Status is the outcome classification.
	Status OutcomeStatus
	// Message is a human-readable description.
	Message string
}
