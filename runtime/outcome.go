package runtime

import (
	"fmt"

	"github.com/codeloom-io/loom/types"
)

// Exit codes returned by the generate and replay commands.
const (
	ExitCodeCompleted        = 0 // stream ended cleanly with actions extracted
	ExitCodeEmptyOutput      = 1 // stream ended cleanly with zero actions
	ExitCodeTransportFailure = 2 // model transport failed
	ExitCodeStoreFailure     = 3 // persistence failed after extraction
)

// ExitCodeFor maps an outcome status to its process exit code.
func ExitCodeFor(status types.OutcomeStatus) int {
	switch status {
	case types.OutcomeCompleted:
		return ExitCodeCompleted
	case types.OutcomeEmptyOutput:
		return ExitCodeEmptyOutput
	case types.OutcomeTransportFailure:
		return ExitCodeTransportFailure
	case types.OutcomeStoreFailure:
		return ExitCodeStoreFailure
	default:
		return ExitCodeTransportFailure
	}
}

// classifyOutcome determines the turn outcome from the terminal state.
//
// Precedence:
//  1. Delivery (sink/store) failure wins over everything: actions were
//     extracted but could not be persisted, so the stored record is
//     incomplete regardless of how the stream ended.
//  2. Transport failure: the stream died. Actions extracted before the
//     failure remain valid and persisted.
//  3. Zero extracted actions on a clean stream is an empty output (model
//     refusal or a reply with no build markup).
//  4. Otherwise completed.
func classifyOutcome(streamErr, deliverErr error, actionCount int) *types.TurnOutcome {
	switch {
	case deliverErr != nil:
		return &types.TurnOutcome{
			Status:  types.OutcomeStoreFailure,
			Message: fmt.Sprintf("action delivery failed: %v", deliverErr),
		}
	case streamErr != nil:
		return &types.TurnOutcome{
			Status:  types.OutcomeTransportFailure,
			Message: fmt.Sprintf("model transport failed: %v", streamErr),
		}
	case actionCount == 0:
		return &types.TurnOutcome{
			Status:  types.OutcomeEmptyOutput,
			Message: "stream ended with no extracted actions",
		}
	default:
		return &types.TurnOutcome{
			Status:  types.OutcomeCompleted,
			Message: "turn completed",
		}
	}
}
