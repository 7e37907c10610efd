package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Phase is the coarse step of a triage command
type Phase int

const (
	PhaseLoad Phase = iota
	PhaseFetch
	PhaseStages
	PhaseDone
)

// Message types for updating the model
type (
	PhaseMsg      Phase
	OperationMsg  string
	StageStartMsg struct {
		Name  string
		Index int
		Total int
	}
	StageDoneMsg struct {
		Name    string
		Verdict string
	}
	DoneMsg struct{ Err error }
)

// Model is the Bubbletea model for progress display
type Model struct {
	phase      Phase
	spinner    spinner.Model
	progress   progress.Model
	currentOp  string
	stageTotal int
	stagesDone int
	verdicts   []string
	width      int
	quitting   bool
	err        error
}

// NewModel creates a new progress model
func NewModel() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	p := progress.New(progress.WithDefaultGradient())

	return Model{
		phase:    PhaseLoad,
		spinner:  s,
		progress: p,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = msg.Width - 4
		if m.progress.Width > 60 {
			m.progress.Width = 60
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case PhaseMsg:
		m.phase = Phase(msg)
		m.currentOp = ""
		return m, nil

	case OperationMsg:
		m.currentOp = string(msg)
		return m, nil

	case StageStartMsg:
		// a new run restarts the count
		if msg.Index == 0 {
			m.stagesDone = 0
			m.verdicts = nil
		}
		m.phase = PhaseStages
		m.stageTotal = msg.Total
		m.currentOp = fmt.Sprintf("Running %s stage...", msg.Name)
		return m, nil

	case StageDoneMsg:
		m.stagesDone++
		m.verdicts = append(m.verdicts, fmt.Sprintf("%s=%s", msg.Name, msg.Verdict))
		return m, nil

	case DoneMsg:
		m.err = msg.Err
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the model
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	switch m.phase {
	case PhaseLoad:
		sb.WriteString(m.spinner.View())
		sb.WriteString(" Loading configuration...")

	case PhaseFetch:
		sb.WriteString(m.spinner.View())
		sb.WriteString(" Fetching repository context")
		if m.currentOp != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", m.currentOp))
		}

	case PhaseStages:
		if m.stageTotal > 0 {
			pct := float64(m.stagesDone) / float64(m.stageTotal)
			sb.WriteString(m.progress.ViewAs(pct))
			sb.WriteString("\n")
		}
		sb.WriteString(m.spinner.View())
		sb.WriteString(" ")
		if m.currentOp != "" {
			sb.WriteString(m.currentOp)
		} else {
			sb.WriteString("Running stages...")
		}
		if len(m.verdicts) > 0 {
			sb.WriteString("\n  ")
			sb.WriteString(strings.Join(m.verdicts, " "))
		}
	}

	return sb.String()
}
