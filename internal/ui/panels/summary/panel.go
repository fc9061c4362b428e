// Package summary renders the four headline counters as cards.
package summary

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/gemini-token-dashboard/internal/models"
	"github.com/j-veylop/gemini-token-dashboard/internal/services"
	"github.com/j-veylop/gemini-token-dashboard/internal/services/poller"
	"github.com/j-veylop/gemini-token-dashboard/internal/ui/components"
	"github.com/j-veylop/gemini-token-dashboard/internal/ui/styles"
)

const defaultWidth = 80

type card struct {
	title string
	color lipgloss.Color
	value func(models.SummaryStats) int64
}

var cards = []card{
	{"Daily Total", styles.DailyAccent, func(s models.SummaryStats) int64 { return s.DailyTotal }},
	{"Monthly Total", styles.MonthlyAccent, func(s models.SummaryStats) int64 { return s.MonthlyTotal }},
	{"Peak Day Record", styles.PeakDayAccent, func(s models.SummaryStats) int64 { return s.PeakDay }},
	{"Lifetime Total", styles.LifetimeAccent, func(s models.SummaryStats) int64 { return s.LifetimeTotal }},
}

// rowCardWidth is the narrowest card whose header fits on one line: the
// widest accent and title plus the card frame.
var rowCardWidth = func() int {
	widest := 0
	for _, c := range cards {
		widest = max(widest, lipgloss.Width(components.CardHeader(c.title, c.color)))
	}
	return widest + styles.StatCardStyle.GetHorizontalFrameSize()
}()

// Panel shows the summary counters of one SummaryFeed.
type Panel struct {
	feed  *services.SummaryFeed
	width int
}

// New creates a panel over feed. Polling starts in Init.
func New(feed *services.SummaryFeed) *Panel {
	return &Panel{feed: feed, width: defaultWidth}
}

// Init starts the feed and waits for its first update.
func (p *Panel) Init() tea.Cmd {
	p.feed.Unit.Start()
	return poller.WaitForUpdate(p.feed.Unit.Updates())
}

// Update re-arms the wait after each update of this panel's unit.
func (p *Panel) Update(msg tea.Msg) tea.Cmd {
	if up, ok := msg.(poller.Update); ok && up.Unit == p.feed.Unit.Name() {
		return poller.WaitForUpdate(p.feed.Unit.Updates())
	}
	return nil
}

// Close stops polling. Responses still in flight are dropped.
func (p *Panel) Close() {
	p.feed.Unit.Stop()
}

// SetWidth sets the width available to the cards.
func (p *Panel) SetWidth(width int) {
	if width <= 0 {
		width = defaultWidth
	}
	p.width = width
}

// Stats returns the snapshot currently on screen.
func (p *Panel) Stats() models.SummaryStats {
	return p.feed.Stats.Get()
}

// View renders the cards in one row, or in a 2x2 grid when narrow.
func (p *Panel) View() string {
	stats := p.feed.Stats.Get()

	perRow := len(cards)
	if p.width/len(cards) < rowCardWidth {
		perRow = 2
	}
	cardWidth := p.width / perRow

	rendered := make([]string, len(cards))
	for i, c := range cards {
		rendered[i] = components.RenderCard(c.title, components.FormatCount(c.value(stats)), c.color, cardWidth)
	}

	var rows []string
	for i := 0; i < len(rendered); i += perRow {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered[i:i+perRow]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
