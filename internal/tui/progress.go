// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"fmt"
	"strings"

	"github.com/powerforge/powerforge/internal/pipeline"
	"github.com/powerforge/powerforge/internal/report"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	stepStyle    = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	counterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
)

type (
	// StepStartedMsg announces a step beginning.
	StepStartedMsg struct {
		ID          string
		Description string
		Index       int
		Total       int
	}

	// StepFinishedMsg carries a step outcome.
	StepFinishedMsg struct {
		Record report.StepRecord
		Index  int
		Total  int
	}

	// PipelineFinishedMsg ends the program.
	PipelineFinishedMsg struct {
		Report *report.RunReport
	}

	// Model is the bubbletea model for a pipeline run: a spinner for the
	// current step over a bar of overall progress, with finished steps
	// scrolling up as plain lines.
	Model struct {
		progress progress.Model
		spinner  spinner.Model
		current  string
		index    int
		total    int
		lines    []string
		done     bool
	}
)

// NewModel builds the run progress model.
func NewModel() Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	return Model{
		progress: progress.New(progress.WithDefaultGradient()),
		spinner:  sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StepStartedMsg:
		m.current = msg.Description
		m.index = msg.Index
		m.total = msg.Total
		return m, nil

	case StepFinishedMsg:
		m.lines = append(m.lines, finishedLine(msg.Record))
		m.index = msg.Index + 1
		m.total = msg.Total
		m.current = ""
		return m, nil

	case PipelineFinishedMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.done {
		return b.String()
	}
	if m.total > 0 {
		fmt.Fprintf(&b, "%s %s\n", counterStyle.Render(fmt.Sprintf("[%d/%d]", m.index+1, m.total)),
			m.progress.ViewAs(float64(m.index)/float64(m.total)))
	}
	if m.current != "" {
		fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), stepStyle.Render(m.current))
	}
	return b.String()
}

func finishedLine(rec report.StepRecord) string {
	switch rec.Status {
	case report.StatusSucceeded:
		return fmt.Sprintf("%s %s", okStyle.Render("✓"), rec.ID)
	case report.StatusFailed:
		return fmt.Sprintf("%s %s: %s", failStyle.Render("✗"), rec.ID, rec.Error)
	default:
		reason := rec.Reason
		if reason != "" {
			reason = " (" + reason + ")"
		}
		return skipStyle.Render(fmt.Sprintf("- %s skipped%s", rec.ID, reason))
	}
}

// ProgramReporter forwards runner callbacks into a running bubbletea
// program. It satisfies pipeline.Reporter.
type ProgramReporter struct {
	Program *tea.Program
}

// StepStarted implements pipeline.Reporter.
func (r *ProgramReporter) StepStarted(step pipeline.Step, index, total int) {
	r.Program.Send(StepStartedMsg{
		ID:          string(step.ID()),
		Description: step.Description(),
		Index:       index,
		Total:       total,
	})
}

// StepFinished implements pipeline.Reporter.
func (r *ProgramReporter) StepFinished(_ pipeline.Step, rec report.StepRecord, index, total int) {
	r.Program.Send(StepFinishedMsg{Record: rec, Index: index, Total: total})
}

// PipelineFinished implements pipeline.Reporter.
func (r *ProgramReporter) PipelineFinished(rep *report.RunReport) {
	r.Program.Send(PipelineFinishedMsg{Report: rep})
}
