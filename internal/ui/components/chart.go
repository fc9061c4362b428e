// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/gemini-token-dashboard/internal/models"
	"github.com/j-veylop/gemini-token-dashboard/internal/ui/styles"
)

const (
	// ChartHeight is the number of plot rows above the zero line.
	ChartHeight = 10

	// YTickCount is the number of labelled rows on the y axis.
	YTickCount = 6

	// MinYUpperBound keeps small series from filling the whole plot.
	MinYUpperBound int64 = 1000

	minPlotColumns = 24
	xLabelEvery    = 4 // hours
	hourLabelWidth = len("00:00")
)

// Marker glyphs drawn under the plot.
const (
	PointMarker   = '•'
	FocusedMarker = '◆'
)

// FormatHour renders a fractional hour as HH:MM. Minutes are rounded, so
// 23.99 is "23:59" and a full 60 carries into the hour.
func FormatHour(hour float64) string {
	whole := math.Floor(hour)
	hh := int(whole)
	mm := int(math.Round((hour - whole) * 60))
	if mm == 60 {
		hh++
		mm = 0
	}
	return fmt.Sprintf("%02d:%02d", hh, mm)
}

// FormatCount formats n with thousands separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// YAxisUpperBound returns the top of the y domain: the series peak, but
// never less than MinYUpperBound.
func YAxisUpperBound(points []models.HourlyTokenPoint) int64 {
	peak := models.PeakTokens(points)
	if peak < MinYUpperBound {
		return MinYUpperBound
	}
	return peak
}

// YAxisTicks returns the labelled y values from top to bottom, evenly
// spaced over [0, upper].
func YAxisTicks(upper int64) []float64 {
	ticks := make([]float64, YTickCount)
	for i := range ticks {
		ticks[i] = float64(upper) * float64(YTickCount-1-i) / float64(YTickCount-1)
	}
	return ticks
}

// HourColumn maps an hour in [0, 24] onto one of cols plot columns.
func HourColumn(hour float64, cols int) int {
	if cols <= 1 {
		return 0
	}
	col := int(math.Round(hour / models.HoursPerDay * float64(cols-1)))
	return max(0, min(col, cols-1))
}

// ChartLayout describes where RenderTokenChart put things, for callers that
// need to line up with the plot.
type ChartLayout struct {
	LabelWidth int
	Columns    int
}

// PlotOffset is the string column of plot column 0.
func (l ChartLayout) PlotOffset() int {
	return l.LabelWidth + 1
}

// TokenChartLayout returns the layout RenderTokenChart uses for the series at
// the given total width.
func TokenChartLayout(points []models.HourlyTokenPoint, width int) ChartLayout {
	labelWidth := len(FormatCount(YAxisUpperBound(points)))
	cols := width - labelWidth - 1
	if cols < minPlotColumns {
		cols = minPlotColumns
	}
	return ChartLayout{LabelWidth: labelWidth, Columns: cols}
}

// RenderTokenChart plots tokens per hour over a fixed [0, 24] x domain and
// [0, YAxisUpperBound] y domain. Below the plot it draws a marker per point,
// HH:MM axis labels and a tooltip for the focused point. A focus outside the
// series draws no tooltip.
func RenderTokenChart(points []models.HourlyTokenPoint, focus, width int) string {
	if len(points) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	layout := TokenChartLayout(points, width)
	upper := YAxisUpperBound(points)

	graph := asciigraph.Plot(resample(points, layout.Columns),
		asciigraph.Height(ChartHeight),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(float64(upper)),
		asciigraph.SeriesColors(asciigraph.MediumSlateBlue),
	)

	lines := relabel(strings.Split(graph, "\n"), YAxisTicks(upper), layout.LabelWidth)
	lines = append(lines,
		markerRow(points, focus, layout),
		hourLabelRow(layout),
	)

	if focus >= 0 && focus < len(points) {
		p := points[focus]
		lines = append(lines, "", tooltip(p))
	}

	return strings.Join(lines, "\n")
}

// resample spreads the series over cols columns, interpolating between
// consecutive points. Columns outside the series are NaN so nothing is drawn.
func resample(points []models.HourlyTokenPoint, cols int) []float64 {
	data := make([]float64, cols)
	for i := range data {
		data[i] = math.NaN()
	}

	for i := 0; i+1 < len(points); i++ {
		a, b := points[i], points[i+1]
		ca, cb := HourColumn(a.Hour, cols), HourColumn(b.Hour, cols)
		if cb <= ca {
			continue
		}
		for c := ca; c <= cb; c++ {
			t := float64(c-ca) / float64(cb-ca)
			data[c] = float64(a.Tokens) + float64(b.Tokens-a.Tokens)*t
		}
	}

	// Points land exactly on their own columns.
	for _, p := range points {
		data[HourColumn(p.Hour, cols)] = float64(p.Tokens)
	}
	return data
}

// relabel swaps asciigraph's per-row labels for YTickCount evenly spaced
// ones with thousands separators.
func relabel(lines []string, ticks []float64, labelWidth int) []string {
	step := ChartHeight / (YTickCount - 1)
	for r, line := range lines {
		axis := strings.IndexAny(line, "┤┼")
		if axis < 0 {
			continue
		}
		label := ""
		if r%step == 0 && r/step < len(ticks) {
			label = FormatCount(int64(math.Round(ticks[r/step])))
		}
		lines[r] = styles.StatLabelStyle.Render(fmt.Sprintf("%*s ", labelWidth, label)) + line[axis:]
	}
	return lines
}

func markerRow(points []models.HourlyTokenPoint, focus int, layout ChartLayout) string {
	marks := make([]rune, layout.Columns)
	for i := range marks {
		marks[i] = ' '
	}
	for _, p := range points {
		marks[HourColumn(p.Hour, layout.Columns)] = PointMarker
	}
	if focus >= 0 && focus < len(points) {
		marks[HourColumn(points[focus].Hour, layout.Columns)] = FocusedMarker
	}

	pointStyle := lipgloss.NewStyle().Foreground(styles.ChartLine)
	focusStyle := styles.FocusedStyle

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", layout.PlotOffset()))
	for _, r := range marks {
		switch r {
		case PointMarker:
			b.WriteString(pointStyle.Render(string(r)))
		case FocusedMarker:
			b.WriteString(focusStyle.Render(string(r)))
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// hourLabelRow centers an HH:MM label under every xLabelEvery hours,
// skipping labels that would collide with the previous one.
func hourLabelRow(layout ChartLayout) string {
	row := []rune(strings.Repeat(" ", layout.PlotOffset()+layout.Columns+hourLabelWidth))
	lastEnd := -1

	for h := 0; h <= models.HoursPerDay; h += xLabelEvery {
		label := FormatHour(float64(h))
		pos := layout.PlotOffset() + HourColumn(float64(h), layout.Columns)
		start := max(pos-hourLabelWidth/2, 0)
		if start <= lastEnd {
			continue
		}
		copy(row[start:], []rune(label))
		lastEnd = start + hourLabelWidth
	}

	return styles.HelpStyle.Render(strings.TrimRight(string(row), " "))
}

func tooltip(p models.HourlyTokenPoint) string {
	return styles.FocusedStyle.Render(FormatHour(p.Hour)) +
		styles.HelpStyle.Render(" · ") +
		styles.StatValueStyle.Render(FormatCount(p.Tokens)) +
		styles.StatLabelStyle.Render(" tokens")
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	var parts []string
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}
