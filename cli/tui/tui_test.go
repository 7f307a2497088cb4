package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/codeloom-io/loom/types"
)

func TestIsTUISupported(t *testing.T) {
	tests := []struct {
		viewType string
		want     bool
	}{
		{"inspect_turn", true},
		{"stats_turns", true},

		{"list_turns", false},
		{"version", false},
		{"generate", false},
		{"unknown", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.viewType, func(t *testing.T) {
			got := IsTUISupported(tt.viewType)
			if got != tt.want {
				t.Errorf("IsTUISupported(%q) = %v, want %v", tt.viewType, got, tt.want)
			}
		})
	}
}

func TestRun_UnsupportedViewType(t *testing.T) {
	err := Run("list_turns", nil)
	if err == nil {
		t.Error("Expected error for unsupported view type")
	}
}

func TestInspectViewRendersActions(t *testing.T) {
	detail := &TurnDetail{
		TurnID:         "turn-inspect-1",
		Provider:       "openai",
		Project:        "react",
		Day:            "2026-08-30",
		Status:         "completed",
		ContainerTitle: "Demo App",
		ActionCount:    2,
		Actions: []*types.Action{
			{Kind: types.ActionCreateContainer, Title: "Demo App", Status: types.StatusCompleted, SequenceID: 0},
			{Kind: types.ActionWriteFile, Path: "src/index.js", Status: types.StatusCompleted, SequenceID: 1},
			{Kind: types.ActionRunCommand, Content: "npm install", Status: types.StatusFailed, SequenceID: 2},
		},
	}

	out := NewInspectModel(detail).View()

	for _, want := range []string{"turn-inspect-1", "Demo App", "src/index.js", "npm install"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect view missing %q", want)
		}
	}
}

func TestInspectViewNilDetail(t *testing.T) {
	out := NewInspectModel(nil).View()
	if !strings.Contains(out, "No turn data") {
		t.Errorf("inspect view = %q, want nil placeholder", out)
	}
}

func TestStatsViewRendersCounts(t *testing.T) {
	stats := &TurnStats{
		Total:           12,
		Completed:       9,
		EmptyOutput:     1,
		TransportFailed: 1,
		StoreFailed:     1,
		ByProject:       map[string]int{"react": 7},
	}

	out := NewStatsModel(stats).View()

	for _, want := range []string{"12", "Completed", "react"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats view missing %q", want)
		}
	}
}

func TestRunInspectTUIWrongPayload(t *testing.T) {
	if err := RunInspectTUI("not a detail"); err == nil {
		t.Error("Expected error for wrong payload type")
	}
}

func TestRunStatsTUIWrongPayload(t *testing.T) {
	if err := RunStatsTUI(42); err == nil {
		t.Error("Expected error for wrong payload type")
	}
}

func TestLiveModelTracksActions(t *testing.T) {
	m := NewLiveModel("turn-live-1", "build a landing page")

	apply := func(msg tea.Msg) {
		t.Helper()
		next, _ := m.Update(msg)
		m = next.(LiveModel)
	}

	apply(LiveActionMsg{Action: &types.Action{
		Kind: types.ActionWriteFile, Path: "index.html",
		Status: types.StatusInProgress, SequenceID: 1,
	}})
	apply(LiveActionMsg{Action: &types.Action{
		Kind: types.ActionWriteFile, Path: "index.html",
		Status: types.StatusCompleted, SequenceID: 1,
	}})

	if len(m.order) != 1 {
		t.Fatalf("order len = %d, want 1 (same action updated in place)", len(m.order))
	}
	if m.actions[1].Status != types.StatusCompleted {
		t.Errorf("action status = %s, want completed", m.actions[1].Status)
	}

	out := m.View()
	if !strings.Contains(out, "index.html") {
		t.Errorf("live view missing action line: %q", out)
	}
	if !strings.Contains(out, "turn-live-1") {
		t.Errorf("live view missing turn ID: %q", out)
	}
}

func TestLiveModelDoneQuits(t *testing.T) {
	m := NewLiveModel("turn-live-2", "p")

	next, cmd := m.Update(LiveDoneMsg{Outcome: &types.TurnOutcome{Status: types.OutcomeCompleted}})
	m = next.(LiveModel)

	if cmd == nil {
		t.Fatal("done message should produce a quit command")
	}
	if m.outcome == nil || m.outcome.Status != types.OutcomeCompleted {
		t.Errorf("outcome = %+v", m.outcome)
	}
	if !strings.Contains(m.View(), "completed") {
		t.Errorf("live view missing outcome: %q", m.View())
	}
}
