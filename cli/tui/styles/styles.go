// Package styles holds the lipgloss theme of the panel TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/limitedeportes/panel/engine/notify"
)

var (
	Primary = lipgloss.Color("#04B575")
	Accent  = lipgloss.Color("69")
	Border  = lipgloss.Color("240")
	Muted   = lipgloss.Color("241")
	Danger  = lipgloss.Color("196")
	Warn    = lipgloss.Color("214")
	Success = lipgloss.Color("10")
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(Primary)

	SubtleStyle = lipgloss.NewStyle().Foreground(Muted)

	SpinnerStyle = lipgloss.NewStyle().Foreground(Accent)

	ActivePageStyle = lipgloss.NewStyle().Foreground(Primary).Bold(true)

	ErrorRowStyle = lipgloss.NewStyle().Foreground(Danger).Italic(true)

	SearchStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(Border)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Danger).
			Padding(1, 2).
			Width(60)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))
)

// RenderTitle renders a screen title.
func RenderTitle(s string) string {
	return TitleStyle.Render(s)
}

// RenderStatusBar lays out three segments across width.
func RenderStatusBar(width int, left, center, right string) string {
	if width <= 0 {
		return statusBarStyle.Render(left + "  " + center + "  " + right)
	}
	used := lipgloss.Width(left) + lipgloss.Width(center) + lipgloss.Width(right)
	gap := max(width-used, 2)
	lpad := gap / 2
	rpad := gap - lpad
	line := left + spaces(lpad) + center + spaces(rpad) + right
	return statusBarStyle.Width(width).Render(line)
}

// ToastStyle returns the style of a notification of the given severity.
func ToastStyle(sev notify.Severity) lipgloss.Style {
	base := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	switch sev {
	case notify.Success:
		return base.Foreground(lipgloss.Color("0")).Background(Success)
	case notify.Error:
		return base.Foreground(lipgloss.Color("15")).Background(Danger)
	case notify.Warning:
		return base.Foreground(lipgloss.Color("0")).Background(Warn)
	default:
		return base.Foreground(lipgloss.Color("15")).Background(Accent)
	}
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
