package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

var (
	statusStyles = map[string]lipgloss.Style{
		"to-do":       lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		"in-progress": lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		"done":        lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	}
	priorityStyles = map[string]lipgloss.Style{
		"high": lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		"low":  lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
	labelStyle = lipgloss.NewStyle().Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Status renders a task status, colored when the terminal allows it.
func Status(status string) string {
	return styled(statusStyles, status)
}

// Priority renders a task priority, colored when the terminal allows it.
func Priority(priority string) string {
	return styled(priorityStyles, priority)
}

// Label renders a field label for detail views.
func Label(label string) string {
	if !ColorEnabled() {
		return label
	}
	return labelStyle.Render(label)
}

// Failure renders a failure reason.
func Failure(text string) string {
	if !ColorEnabled() {
		return text
	}
	return errorStyle.Render(text)
}

func styled(styles map[string]lipgloss.Style, value string) string {
	style, ok := styles[value]
	if !ok || !ColorEnabled() {
		return value
	}
	return style.Render(value)
}

// Wrap word-wraps text to width and indents every line by spaces.
func Wrap(text string, width, spaces int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if width > spaces {
		text = wordwrap.String(text, width-spaces)
	}
	if spaces > 0 {
		text = indent.String(text, uint(spaces))
	}
	return text
}
