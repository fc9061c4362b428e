package dashboard

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/gemini-token-dashboard/internal/ui/styles"
)

// View renders the heading followed by the two panels.
func (m *Model) View() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(),
		m.summary.View(),
		"",
		m.usage.View(),
	)

	if m.width == 0 || m.height == 0 {
		return content
	}

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Gemini Token Analysis")

	var status string
	if m.state.IsInitialLoading() {
		status = m.spinner.ViewWithLabel()
	} else if last := m.state.GetLastUpdated(); !last.IsZero() {
		status = styles.HelpStyle.Render("Last updated " + humanize.Time(last))
	} else {
		status = styles.HelpStyle.Render("Waiting for data")
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, status, "")
}
