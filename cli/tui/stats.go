package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TurnStats is the stats view payload: outcome counts over the stored
// turns of one backend. Shared with the non-TUI renderers.
type TurnStats struct {
	Total           int            `json:"total"`
	Completed       int            `json:"completed"`
	EmptyOutput     int            `json:"empty_output"`
	TransportFailed int            `json:"transport_failed"`
	StoreFailed     int            `json:"store_failed"`
	ByProject       map[string]int `json:"by_project,omitempty"`
	ByProvider      map[string]int `json:"by_provider,omitempty"`
}

// StatsModel is a Bubble Tea model for the turn stats view.
type StatsModel struct {
	stats    *TurnStats
	width    int
	height   int
	quitting bool
}

// NewStatsModel creates a stats model.
func NewStatsModel(stats *TurnStats) StatsModel {
	return StatsModel{stats: stats}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}
	if m.stats == nil {
		return "No stats data"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Turn Statistics"))
	b.WriteString("\n\n")

	boxes := []string{
		m.renderStatBox("Total", m.stats.Total, highlightColor),
		m.renderStatBox("Completed", m.stats.Completed, successColor),
		m.renderStatBox("Empty", m.stats.EmptyOutput, warningColor),
		m.renderStatBox("Transport", m.stats.TransportFailed, errorColor),
		m.renderStatBox("Store", m.stats.StoreFailed, errorColor),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))

	if len(m.stats.ByProject) > 0 {
		b.WriteString("\n\n")
		b.WriteString(TitleStyle.Render("By Project"))
		b.WriteString("\n")
		for project, count := range m.stats.ByProject {
			b.WriteString(fmt.Sprintf("%s %s\n",
				LabelStyle.Render(project+":"),
				ValueStyle.Render(fmt.Sprintf("%d", count))))
		}
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return b.String() + "\n" + help
}

func (m StatsModel) renderStatBox(label string, value int, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)
	return boxStyle.Render(content)
}

// RunStatsTUI runs the stats TUI over a TurnStats payload.
func RunStatsTUI(data any) error {
	stats, ok := data.(*TurnStats)
	if !ok {
		return fmt.Errorf("stats TUI requires *TurnStats, got %T", data)
	}
	p := tea.NewProgram(NewStatsModel(stats), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderStatsStatic renders stats data without the interactive program.
func RenderStatsStatic(stats *TurnStats) string {
	model := NewStatsModel(stats)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
