package tui

import (
	"fmt"
)

// View type identifiers accepted by Run.
const (
	ViewInspectTurn = "inspect_turn"
	ViewStatsTurns  = "stats_turns"
)

// Run starts the read-only TUI for the given view type.
// The live generation view has its own entry point (NewLiveProgram) because
// it is fed incrementally rather than from a complete payload.
func Run(viewType string, data any) error {
	switch viewType {
	case ViewInspectTurn:
		return RunInspectTUI(data)
	case ViewStatsTurns:
		return RunStatsTUI(data)
	default:
		return fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
}

// IsTUISupported reports whether the view type has a TUI rendering.
func IsTUISupported(viewType string) bool {
	return viewType == ViewInspectTurn || viewType == ViewStatsTurns
}
