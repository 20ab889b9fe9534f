package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	header    lipgloss.Style
	title     lipgloss.Style
	muted     lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	system    lipgloss.Style
	failure   lipgloss.Style
	score     lipgloss.Style
	notice    lipgloss.Style
	input     lipgloss.Style
}

func newTheme() theme {
	green := lipgloss.Color("#05ffa1")
	magenta := lipgloss.Color("#ff71ce")
	cyan := lipgloss.Color("#01cdfe")
	red := lipgloss.Color("#ff5f56")
	yellow := lipgloss.Color("#ffd166")
	muted := lipgloss.Color("#9ca3d8")

	return theme{
		header: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(cyan).
			Padding(0, 1),
		title:     lipgloss.NewStyle().Bold(true).Foreground(magenta),
		muted:     lipgloss.NewStyle().Foreground(muted),
		user:      lipgloss.NewStyle().Bold(true).Foreground(green),
		assistant: lipgloss.NewStyle().Bold(true).Foreground(magenta),
		system:    lipgloss.NewStyle().Foreground(cyan),
		failure:   lipgloss.NewStyle().Foreground(red),
		score:     lipgloss.NewStyle().Bold(true).Foreground(yellow),
		notice:    lipgloss.NewStyle().Italic(true).Foreground(yellow),
		input: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(muted),
	}
}
