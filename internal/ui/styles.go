package ui

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorFailure   = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorInfo      = lipgloss.Color("#3B82F6")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorBorder    = lipgloss.Color("#374151")
	ColorHighlight = lipgloss.Color("#1F2937")
	ColorPath      = lipgloss.Color("#60A5FA")

	StylePane = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StylePaneFocused = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F9FAFB")).
			Background(ColorPrimary).
			Padding(0, 1)

	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleFailure = lipgloss.NewStyle().Foreground(ColorFailure)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo)
	StyleMuted   = lipgloss.NewStyle().Foreground(ColorMuted)

	StyleCommand = lipgloss.NewStyle().Bold(true).Foreground(ColorInfo)
	StylePath    = lipgloss.NewStyle().Underline(true).Foreground(ColorPath)

	StyleMatch = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FCD34D")).
			Background(lipgloss.Color("#78350F"))
)

// StepStyle colors a workflow step by the outcome of its last run.
func StepStyle(status string) lipgloss.Style {
	switch status {
	case "ok":
		return StyleSuccess
	case "failed":
		return StyleFailure
	case "running":
		return StyleInfo
	default:
		return StyleMuted
	}
}

func StatusIcon(status string) string {
	switch status {
	case "ok":
		return StyleSuccess.Render("V")
	case "failed":
		return StyleFailure.Render("X")
	case "running":
		return StyleInfo.Render("*")
	case "pending":
		return StyleMuted.Render("o")
	default:
		return StyleMuted.Render("?")
	}
}
