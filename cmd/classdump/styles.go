package main

import "github.com/charmbracelet/lipgloss"

var (
	titleColor = lipgloss.Color("#4682B4")
	fieldColor = lipgloss.Color("#228B22")
	methodColor = lipgloss.Color("#CC8800")
	mutedColor  = lipgloss.Color("#888888")
	errorColor  = lipgloss.Color("#CC3333")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(titleColor).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Bold(true).
			Padding(0, 0, 0, 0)

	fieldStyle  = lipgloss.NewStyle().Foreground(fieldColor)
	methodStyle = lipgloss.NewStyle().Foreground(methodColor)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle  = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
)
