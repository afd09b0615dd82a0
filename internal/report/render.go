// SPDX-License-Identifier: MPL-2.0

package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
)

// Render writes a human-readable summary table of the run: one row per
// step with status and duration, followed by failure details and the
// overall outcome.
func Render(w io.Writer, r *RunReport) {
	idWidth := len("STEP")
	for _, s := range r.Steps {
		if len(s.ID) > idWidth {
			idWidth = len(s.ID)
		}
	}

	fmt.Fprintf(w, "%s  %s  %s\n",
		headerStyle.Render(pad("STEP", idWidth)),
		headerStyle.Render(pad("STATUS", 9)),
		headerStyle.Render("DURATION"))

	for _, s := range r.Steps {
		fmt.Fprintf(w, "%s  %s  %s\n",
			pad(s.ID, idWidth),
			renderStatus(s.Status),
			dimStyle.Render(formatDuration(s)))
		if s.Status == StatusSkipped && s.Reason != "" {
			fmt.Fprintf(w, "%s  %s\n", pad("", idWidth), skippedStyle.Render(s.Reason))
		}
	}

	for _, s := range r.Failed() {
		fmt.Fprintf(w, "\n%s %s\n", failureStyle.Render("✗"), s.ID)
		if s.Error != "" {
			fmt.Fprintf(w, "  %s\n", s.Error)
		}
		if out := strings.TrimSpace(s.Output); out != "" {
			for _, line := range strings.Split(out, "\n") {
				fmt.Fprintf(w, "  %s\n", dimStyle.Render(line))
			}
		}
	}

	fmt.Fprintln(w)
	if r.Success {
		fmt.Fprintf(w, "%s in %s\n",
			successStyle.Render("Pipeline succeeded"),
			r.Duration().Round(time.Millisecond))
	} else {
		fmt.Fprintf(w, "%s after %s (%d step(s) failed)\n",
			failureStyle.Render("Pipeline failed"),
			r.Duration().Round(time.Millisecond),
			len(r.Failed()))
	}
}

func renderStatus(s Status) string {
	switch s {
	case StatusSucceeded:
		return successStyle.Render(pad("ok", 9))
	case StatusFailed:
		return failureStyle.Render(pad("failed", 9))
	default:
		return skippedStyle.Render(pad("skipped", 9))
	}
}

func formatDuration(s StepRecord) string {
	if s.Status == StatusSkipped {
		return "-"
	}
	return s.Duration.Round(time.Millisecond).String()
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
