package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/hepc-tui/internal/ui"
)

func RenderStatusBar(status, hints string, width int) string {
	left := lipgloss.NewStyle().Foreground(ui.ColorMuted).Render("  " + status)

	help := lipgloss.NewStyle().Foreground(ui.ColorMuted).
		Render(hints + " ")

	gap := width - lipgloss.Width(left) - lipgloss.Width(help)
	if gap < 0 {
		gap = 0
	}
	padding := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.NewStyle().
		Background(lipgloss.Color("#111827")).
		Width(width).
		Render(left + padding + help)
}

// ContentHeight is the inner pane height left after the header, tab or
// title line, status bar and pane borders.
func ContentHeight(height int) int {
	h := height - 5
	if h < 1 {
		h = 1
	}
	return h
}

// Clamp cuts content to at most maxLines lines.
func Clamp(content string, maxLines int) string {
	if maxLines <= 0 {
		return content
	}
	n := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			n++
			if n == maxLines {
				return content[:i]
			}
		}
	}
	return content
}
