package tui

import "github.com/charmbracelet/lipgloss"

var (
	accentColor  = lipgloss.Color("#cba6f7")
	successColor = lipgloss.Color("#a6e3a1")
	errorColor   = lipgloss.Color("#f38ba8")
	faintColor   = lipgloss.Color("#6c7086")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	cursorStyle   = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(successColor)
	faintStyle    = lipgloss.NewStyle().Foreground(faintColor)
	errorStyle    = lipgloss.NewStyle().Foreground(errorColor)
	paddingStyle  = lipgloss.NewStyle().Padding(1, 2)
)
