package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-replay/internal/scheduler"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true)

	passedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// FormatStatus renders a status with a marker so it reads without color too.
func FormatStatus(status scheduler.Status) string {
	switch status {
	case scheduler.StatusPassed:
		return passedStyle.Render("✔ " + string(status))
	case scheduler.StatusFailed, scheduler.StatusException:
		return failedStyle.Render("✘ " + string(status))
	case scheduler.StatusTimeout:
		return warnStyle.Render("⏱ " + string(status))
	default:
		return string(status)
	}
}
