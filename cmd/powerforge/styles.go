// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Shared palette for all command output, picked for dark terminals.
const (
	// ColorPrimary is purple, for titles and primary emphasis.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray, for subtitles and secondary text.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green, for passing steps and positive outcomes.
	ColorSuccess = lipgloss.Color("#22C55E")

	// ColorError is red, for failed steps and error text.
	ColorError = lipgloss.Color("#EF4444")

	// ColorWarning is amber, for warnings and skipped steps.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorHighlight is blue, for command names and paths.
	ColorHighlight = lipgloss.Color("#3B82F6")

	// ColorVerbose is light gray, for verbose detail lines.
	ColorVerbose = lipgloss.Color("#9CA3AF")
)

// Named styles built from the palette. Commands compose these rather than
// defining their own colors.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle renders command invocations and file paths inside help and
	// status text.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	VerboseStyle = lipgloss.NewStyle().
			Foreground(ColorVerbose)
)
