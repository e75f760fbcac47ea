package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/limitedeportes/panel/cli/tui/styles"
)

// RenderConfirm renders a yes/no modal for prompt.
func RenderConfirm(prompt string) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(styles.Danger).Render("⚠️  Confirmar")
	content := title + "\n\n" + prompt + "\n\n" +
		lipgloss.NewStyle().Foreground(styles.Danger).Bold(true).Render("Esta acción no se puede deshacer") + "\n\n" +
		styles.SubtleStyle.Render("s/y para confirmar • n/esc para cancelar")
	return styles.ModalStyle.Render(content)
}
