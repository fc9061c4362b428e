// Package usage renders the intraday token chart and its stats list.
package usage

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/gemini-token-dashboard/internal/models"
	"github.com/j-veylop/gemini-token-dashboard/internal/services"
	"github.com/j-veylop/gemini-token-dashboard/internal/services/poller"
	"github.com/j-veylop/gemini-token-dashboard/internal/ui/components"
	"github.com/j-veylop/gemini-token-dashboard/internal/ui/styles"
)

const (
	defaultWidth = 80

	// sideBySideWidth is where the stats list moves beside the chart.
	sideBySideWidth = 110
	statsListWidth  = 30
	statsLabelWidth = 15
)

// NoFocus means no point is focused and no tooltip is drawn.
const NoFocus = -1

// keyMap moves the focused point, the terminal stand-in for hovering.
type keyMap struct {
	Prev key.Binding
	Next key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Prev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev point"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next point"),
		),
	}
}

// Panel shows the series and graph stats of one UsageFeed.
type Panel struct {
	feed  *services.UsageFeed
	keys  keyMap
	focus int
	width int
}

// New creates a panel over feed. Polling starts in Init.
func New(feed *services.UsageFeed) *Panel {
	return &Panel{
		feed:  feed,
		keys:  defaultKeyMap(),
		focus: NoFocus,
		width: defaultWidth,
	}
}

// Init starts the feed and waits for its first update.
func (p *Panel) Init() tea.Cmd {
	p.feed.Unit.Start()
	return poller.WaitForUpdate(p.feed.Unit.Updates())
}

// Update moves the focus on key presses and re-arms the wait after each
// update of this panel's unit.
func (p *Panel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case poller.Update:
		if msg.Unit == p.feed.Unit.Name() {
			p.clampFocus()
			return poller.WaitForUpdate(p.feed.Unit.Updates())
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Prev):
			p.moveFocus(-1)
		case key.Matches(msg, p.keys.Next):
			p.moveFocus(1)
		}
	}
	return nil
}

// Close stops polling. Responses still in flight are dropped.
func (p *Panel) Close() {
	p.feed.Unit.Stop()
}

// SetWidth sets the width available to the panel.
func (p *Panel) SetWidth(width int) {
	if width <= 0 {
		width = defaultWidth
	}
	p.width = width
}

// Focus returns the index of the focused point, or NoFocus.
func (p *Panel) Focus() int {
	return p.focus
}

// Keys returns the panel's key bindings for the help views.
func (p *Panel) Keys() []key.Binding {
	return []key.Binding{p.keys.Prev, p.keys.Next}
}

// moveFocus steps through the points. From NoFocus, forward starts at the
// first point and backward at the last.
func (p *Panel) moveFocus(delta int) {
	n := len(p.feed.Series.Get())
	if n == 0 {
		p.focus = NoFocus
		return
	}
	switch {
	case p.focus == NoFocus && delta > 0:
		p.focus = 0
	case p.focus == NoFocus:
		p.focus = n - 1
	default:
		p.focus = max(0, min(p.focus+delta, n-1))
	}
}

// clampFocus keeps the focus on a point after the series changed length.
func (p *Panel) clampFocus() {
	n := len(p.feed.Series.Get())
	if p.focus >= n {
		p.focus = n - 1
	}
}

// View renders the stats list and the chart, side by side when wide.
func (p *Panel) View() string {
	series := p.feed.Series.Get()
	stats := p.feed.Stats.Get()

	list := renderStatsList(stats)

	if p.width >= sideBySideWidth {
		chart := renderChart(series, p.focus, p.width-statsListWidth-2)
		return lipgloss.JoinHorizontal(lipgloss.Top,
			chart,
			lipgloss.NewStyle().MarginLeft(2).Width(statsListWidth).Render(list),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, list, "", renderChart(series, p.focus, p.width))
}

func renderChart(series []models.HourlyTokenPoint, focus, width int) string {
	var b strings.Builder
	b.WriteString(styles.SubTitleStyle.Render("Token Usage"))
	b.WriteString("\n")
	b.WriteString(components.RenderTokenChart(series, focus, width))
	b.WriteString("\n\n")
	b.WriteString(components.RenderLegend([]components.LegendItem{
		{Label: "tokens", Color: styles.ChartLine},
	}))
	return b.String()
}

func renderStatsList(s models.GraphStats) string {
	rows := []struct {
		label string
		value string
	}{
		{"Input Tokens", components.FormatCount(s.InputTokens)},
		{"Output Tokens", components.FormatCount(s.OutputTokens)},
		{"Peak Hours", s.PeakHours},
		{"Daily Change", s.DailyChange},
	}

	lines := []string{styles.SubTitleStyle.Render("Daily Stats")}
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s %s",
			styles.StatLabelStyle.Width(statsLabelWidth).Render(r.label),
			styles.StatValueStyle.Render(r.value),
		))
	}
	return strings.Join(lines, "\n")
}
