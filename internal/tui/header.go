package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/hepc-tui/internal/ui"
)

// RenderHeader draws the top bar: the tool name and context on the left, a
// counter on the right. A negative count hides the counter.
func RenderHeader(title, context string, count, total int, width int) string {
	left := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#F9FAFB")).
		Render(fmt.Sprintf(" %s | %s", title, context))

	counter := ""
	if count >= 0 {
		color := ui.ColorSuccess
		if count == 0 {
			color = ui.ColorFailure
		} else if total > 0 && count == total {
			color = ui.ColorMuted
		}
		counter = lipgloss.NewStyle().Foreground(color).
			Render(fmt.Sprintf("%d/%d ", count, total))
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(counter)
	if gap < 0 {
		gap = 0
	}
	padding := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.NewStyle().
		Background(lipgloss.Color("#1F2937")).
		Width(width).
		Render(left + padding + counter)
}
