package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/gemini-token-dashboard/internal/ui/styles"
)

// MinCardWidth is the narrowest card RenderCard will draw.
const MinCardWidth = 16

// RenderCard draws a titled value box. The color tints the border and the
// accent square in front of the title. width includes the border.
func RenderCard(title, value string, color lipgloss.Color, width int) string {
	if width < MinCardWidth {
		width = MinCardWidth
	}

	return styles.StatCardStyle.
		BorderForeground(color).
		Width(width - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			CardHeader(title, color),
			styles.StatValueStyle.Render(value),
		))
}

// CardHeader renders the tinted accent square followed by the title.
func CardHeader(title string, color lipgloss.Color) string {
	accent := lipgloss.NewStyle().Foreground(color).Render("■")
	return accent + " " + styles.StatLabelStyle.Render(title)
}
