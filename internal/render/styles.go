package render

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	index     lipgloss.Style
	operation lipgloss.Style
	result    lipgloss.Style
	timestamp lipgloss.Style
	empty     lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		header:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		index:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Align(lipgloss.Right),
		operation: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		result:    lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		timestamp: lipgloss.NewStyle().Faint(true),
		empty:     lipgloss.NewStyle().Faint(true),
	}
}
