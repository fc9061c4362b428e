package info

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/gemini-token-dashboard/internal/services/poller"
	"github.com/j-veylop/gemini-token-dashboard/internal/ui/styles"
	"github.com/j-veylop/gemini-token-dashboard/internal/version"
)

const (
	minCardWidth = 50
	maxCardWidth = 80
	labelWidth   = 18
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderPollingCard(),
		m.renderAboutCard(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if m.width == 0 || m.height == 0 {
		return content
	}

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, minCardWidth), maxCardWidth)
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, polling status and build information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration"), ""}

	if m.mgr == nil {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	} else {
		cfg := m.mgr.Config()
		rows = append(rows,
			renderRow("API URL", m.mgr.Client().BaseURL()),
			renderRow("Refresh Interval", cfg.RefreshInterval.String()),
			renderRow("Request Timeout", cfg.RequestTimeout.String()),
			renderRow("Log File", orNone(cfg.LogFile)),
			renderRow("Log Level", cfg.LogLevel),
			renderRow("Metrics", orNone(cfg.MetricsAddr)),
			renderRow("Record Alerts", strconv.FormatBool(cfg.NotifyRecords)),
			renderRow("Env File", orNone(cfg.EnvFile)),
		)
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderPollingCard() string {
	rows := []string{styles.CardTitleStyle.Render("Polling"), ""}

	if m.mgr == nil {
		rows = append(rows, styles.HelpStyle.Render("No feeds"))
	} else {
		rows = append(rows,
			renderUnit(m.mgr.Summary().Unit),
			renderUnit(m.mgr.Usage().Unit),
		)
	}

	if last := m.state.GetLastUpdated(); !last.IsZero() {
		rows = append(rows, "", renderRow("Last Update", last.Format("15:04:05")))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func renderUnit(u *poller.Unit) string {
	status := styles.WarningTextStyle.Render("stopped")
	if u.Running() {
		status = styles.SuccessTextStyle.Render("running")
	}

	detail := fmt.Sprintf("%s, every %s, %s cycles", status, u.Interval(), humanize.Comma(int64(u.Cycles())))
	if last := u.LastCycle(); !last.IsZero() {
		detail += ", last " + last.Format("15:04:05")
	}
	return renderRow(u.Name(), detail)
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About Gemini Token Dashboard"),
		"",
		renderRow("Version", version.GetVersion()),
		renderRow("Build Date", version.GetDate()),
		renderRow("Git Commit", version.GetCommit()),
		renderRow("Go Version", runtime.Version()),
		renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(labelWidth).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
