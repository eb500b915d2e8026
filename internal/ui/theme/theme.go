// Package theme holds the terminal styles used by the CLI commands.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary = lipgloss.Color("#8B5CF6") // Purple
	Accent  = lipgloss.Color("#F97316") // Orange
	Success = lipgloss.Color("#22C55E") // Green
	Error   = lipgloss.Color("#F43F5E") // Rose
	TextDim = lipgloss.Color("#94A3B8") // Slate
	Border  = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Heading = lipgloss.NewStyle().
		Bold(true).
		Underline(true)

	Dim = lipgloss.NewStyle().
		Foreground(TextDim)

	Label = lipgloss.NewStyle().
		Foreground(TextDim).
		Width(12)
)

// States
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Warning = lipgloss.NewStyle().
		Foreground(Accent)
)

// Card frames a block such as a post preview.
var Card = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Border).
	Padding(1, 2)

// Mark renders a success or failure tick.
func Mark(ok bool) string {
	if ok {
		return Correct.Render("✓")
	}
	return Incorrect.Render("✗")
}

// Field renders an aligned "label value" line.
func Field(label, value string) string {
	return Label.Render(label) + value
}
