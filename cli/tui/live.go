package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/codeloom-io/loom/types"
)

// LiveActionMsg updates the live view with the latest state of one action.
// Actions are keyed by sequence ID, so a later message for the same action
// replaces the earlier line.
type LiveActionMsg struct {
	Action *types.Action
}

// LiveDoneMsg terminates the live view with the turn outcome.
type LiveDoneMsg struct {
	Outcome *types.TurnOutcome
}

// LiveModel is a Bubble Tea model for a generation turn in flight. It is
// driven externally through Program.Send rather than by its own commands.
type LiveModel struct {
	turnID   string
	prompt   string
	spinner  spinner.Model
	order    []int64
	actions  map[int64]*types.Action
	outcome  *types.TurnOutcome
	width    int
	quitting bool
}

// NewLiveModel creates a live model for the given turn.
func NewLiveModel(turnID, prompt string) LiveModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = WarningStyle
	return LiveModel{
		turnID:  turnID,
		prompt:  prompt,
		spinner: s,
		actions: make(map[int64]*types.Action),
	}
}

// Init implements tea.Model.
func (m LiveModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}

	case LiveActionMsg:
		if msg.Action == nil {
			return m, nil
		}
		if _, seen := m.actions[msg.Action.SequenceID]; !seen {
			m.order = append(m.order, msg.Action.SequenceID)
		}
		m.actions[msg.Action.SequenceID] = msg.Action
		return m, nil

	case LiveDoneMsg:
		m.outcome = msg.Outcome
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m LiveModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Generating"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("Turn ID:"), ValueStyle.Render(m.turnID)))
	b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("Prompt:"), ValueStyle.Render(truncate(m.prompt, 60))))
	b.WriteString("\n")

	for _, id := range m.order {
		b.WriteString(renderActionLine(m.actions[id]))
		b.WriteString("\n")
	}

	if m.outcome != nil {
		status := string(m.outcome.Status)
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("Outcome:"), StateStyle(status).Render(status)))
	} else {
		b.WriteString("\n")
		b.WriteString(m.spinner.View())
		b.WriteString(" streaming")
	}

	help := HelpStyle.Render("Press q or Ctrl+C to cancel")
	return b.String() + "\n" + help
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// NewLiveProgram creates a Bubble Tea program around a live model. The caller
// feeds it with Send(LiveActionMsg{...}) from the generation pipeline and
// Send(LiveDoneMsg{...}) when the turn ends.
func NewLiveProgram(turnID, prompt string) *tea.Program {
	return tea.NewProgram(NewLiveModel(turnID, prompt))
}
