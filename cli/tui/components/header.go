package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"

	"github.com/limitedeportes/panel/cli/tui/styles"
)

// RenderBanner renders text as ASCII art in the primary color.
func RenderBanner(text string, width int) string {
	logo := figure.NewFigure(text, "standard", true)
	style := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Align(lipgloss.Left)
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(logo.String())
}
