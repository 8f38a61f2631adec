package ui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha
var (
	colorBase    = lipgloss.Color("#1e1e2e")
	colorText    = lipgloss.Color("#cdd6f4")
	colorBlue    = lipgloss.Color("#89b4fa")
	colorRed     = lipgloss.Color("#f38ba8")
	colorOverlay = lipgloss.Color("#6c7086")
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorBase).Background(colorBlue)
	selectedStyle = lipgloss.NewStyle().Foreground(colorBase).Background(colorBlue)
	statusStyle   = lipgloss.NewStyle().Foreground(colorText)
	errorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

func paneStyle(focused bool) lipgloss.Style {
	border := colorOverlay
	if focused {
		border = colorBlue
	}
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border)
}
