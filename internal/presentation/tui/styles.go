package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.Color("#34d399")
	muted   = lipgloss.Color("#8CA1AE")
	warning = lipgloss.Color("#FF6B6B")
	busy    = lipgloss.Color("#F6AE2D")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(busy).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(warning).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(muted)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)
)
