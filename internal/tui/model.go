// Package tui provides the Bubble Tea view of a running solver.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/cipherbreak/internal/model"
	"github.com/verte-zerg/cipherbreak/internal/stats"
	"github.com/verte-zerg/cipherbreak/internal/worker"
)

// pollInterval drains the run mailbox at 30 Hz.
const pollInterval = time.Second / 30

const (
	maxPreviewLines = 6
	maxBarWidth     = 60
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	changedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	keptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	otherStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	bestStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FD962"))
	rowStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0C0C0"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

type tickMsg time.Time

// Model implements the Bubble Tea solver progress UI.
type Model struct {
	run         *worker.Run
	cipherName  string
	cipherRunes []rune

	state    worker.State
	progress progress.Model
	spinner  spinner.Model

	width  int
	height int
}

// NewModel constructs a view over a started run.
func NewModel(run *worker.Run, cipherName, ciphertext string) *Model {
	return &Model{
		run:         run,
		cipherName:  cipherName,
		cipherRunes: []rune(ciphertext),
		progress:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// State returns everything the view has folded so far.
func (m *Model) State() worker.State {
	return m.state
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.spinner.Tick)
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, min(maxBarWidth, msg.Width-24))
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.run.Cancel()
			m.state.ApplyAll(m.run.Poll())
			return m, tea.Quit
		}
		return m, nil
	case tickMsg:
		m.state.ApplyAll(m.run.Poll())
		if m.state.Finished {
			return m, tea.Quit
		}
		return m, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	lines := []string{titleStyle.Render(fmt.Sprintf("Solving %s", m.cipherName)), m.renderStatus()}
	if m.state.Err != nil {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("Error: %v", m.state.Err)))
	}
	lines = append(lines, "")
	lines = append(lines, m.renderCandidates()...)
	if len(m.state.TopK) > 0 {
		best := buildStyledRunes([]rune(strings.TrimSpace(m.state.TopK[0].Plaintext)), m.cipherRunes)
		wrapped := wrapStyledRunes(best, m.contentWidth())
		if len(wrapped) > maxPreviewLines {
			wrapped = append(wrapped[:maxPreviewLines], otherStyle.Render("…"))
		}
		lines = append(lines, "")
		lines = append(lines, wrapped...)
	}
	lines = append(lines, "", footerStyle.Render(m.renderFooter()))
	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 76
	}
	return max(20, m.width-4)
}

func (m *Model) renderStatus() string {
	if m.state.Indeterminate {
		return fmt.Sprintf("%s tried %d keys", m.spinner.View(), m.state.Tried)
	}
	return fmt.Sprintf("%s %d/%d", m.progress.ViewAs(m.state.Fraction()), m.state.Tried, m.state.Total)
}

func (m *Model) renderCandidates() []string {
	if len(m.state.TopK) == 0 {
		return []string{otherStyle.Render("No candidates yet.")}
	}
	keyWidth := len("Key")
	for _, c := range m.state.TopK {
		keyWidth = max(keyWidth, lipgloss.Width(c.KeyText))
	}
	previewWidth := max(10, m.contentWidth()-keyWidth-14)
	lines := make([]string, 0, len(m.state.TopK)+1)
	lines = append(lines, footerStyle.Render(fmt.Sprintf("%2s %-8s %-*s %s", "#", "Score", keyWidth, "Key", "Plaintext")))
	for i, c := range m.state.TopK {
		style := rowStyle
		if i == 0 {
			style = bestStyle
		}
		row := fmt.Sprintf("%2d %-8.4f %-*s %s", i+1, c.Score, keyWidth, c.KeyText, stats.Truncate(stats.OneLine(c.Plaintext), previewWidth))
		lines = append(lines, style.Render(row))
	}
	return lines
}

func (m *Model) renderFooter() string {
	if !m.state.Finished {
		return "q/esc cancel"
	}
	switch m.state.Outcome {
	case model.OutcomeCancelled:
		return "cancelled"
	case model.OutcomeFailed:
		return "failed"
	default:
		return "done"
	}
}
