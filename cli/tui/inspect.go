package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/codeloom-io/loom/types"
)

// TurnDetail is the inspect view payload: one persisted turn with its
// action log. Shared with the non-TUI renderers.
type TurnDetail struct {
	TurnID         string          `json:"turn_id"`
	Provider       string          `json:"provider"`
	Project        string          `json:"project"`
	Day            string          `json:"day"`
	Status         string          `json:"status"`
	Message        string          `json:"message,omitempty"`
	ContainerTitle string          `json:"container_title,omitempty"`
	ActionCount    int64           `json:"action_count"`
	FilesWritten   int64           `json:"files_written"`
	Actions        []*types.Action `json:"actions"`
}

// InspectModel is a Bubble Tea model for the turn inspect view.
type InspectModel struct {
	detail   *TurnDetail
	width    int
	height   int
	quitting bool
}

// NewInspectModel creates an inspect model.
func NewInspectModel(detail *TurnDetail) InspectModel {
	return InspectModel{detail: detail}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}
	if m.detail == nil {
		return "No turn data"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Turn Details"))
	b.WriteString("\n\n")

	rows := [][]string{
		{"Turn ID", m.detail.TurnID},
		{"Provider", m.detail.Provider},
		{"Project", m.detail.Project},
		{"Day", m.detail.Day},
		{"Status", m.detail.Status},
	}
	if m.detail.ContainerTitle != "" {
		rows = append(rows, []string{"Title", m.detail.ContainerTitle})
	}
	if m.detail.Message != "" {
		rows = append(rows, []string{"Message", m.detail.Message})
	}

	for _, row := range rows {
		label := LabelStyle.Render(row[0] + ":")
		value := row[1]
		if row[0] == "Status" {
			value = StateStyle(m.detail.Status).Render(value)
		} else {
			value = ValueStyle.Render(value)
		}
		b.WriteString(fmt.Sprintf("%s %s\n", label, value))
	}

	if len(m.detail.Actions) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("Actions"))
		b.WriteString("\n")
		for _, a := range m.detail.Actions {
			b.WriteString(renderActionLine(a))
			b.WriteString("\n")
		}
	}

	content := BoxStyle.Render(b.String())
	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

// renderActionLine renders one action as a single status-colored line.
func renderActionLine(a *types.Action) string {
	var label string
	switch a.Kind {
	case types.ActionCreateContainer:
		label = fmt.Sprintf("container %q", a.Title)
	case types.ActionWriteFile:
		label = "write " + a.Path
	case types.ActionRunCommand:
		label = "run " + a.Content
	default:
		label = a.Title
	}

	marker := StateStyle(string(a.Status)).Render(statusMarker(a.Status))
	return fmt.Sprintf("  %s #%d %s", marker, a.SequenceID, ValueStyle.Render(label))
}

func statusMarker(status types.ActionStatus) string {
	switch status {
	case types.StatusCompleted:
		return "✓"
	case types.StatusFailed:
		return "✗"
	case types.StatusInProgress:
		return "…"
	default:
		return "•"
	}
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunInspectTUI runs the inspect TUI over a TurnDetail payload.
func RunInspectTUI(data any) error {
	detail, ok := data.(*TurnDetail)
	if !ok {
		return fmt.Errorf("inspect TUI requires *TurnDetail, got %T", data)
	}
	p := tea.NewProgram(NewInspectModel(detail), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderInspectStatic renders inspect data without the interactive program.
func RenderInspectStatic(detail *TurnDetail) string {
	model := NewInspectModel(detail)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
