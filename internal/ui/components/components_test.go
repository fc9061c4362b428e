package components

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/gemini-token-dashboard/internal/models"
)

func TestNewSpinner(t *testing.T) {
	s := NewSpinner("Loading")
	if s.label != "Loading" {
		t.Error("Spinner label mismatch")
	}
}

func TestSpinner_Methods(t *testing.T) {
	s := NewSpinner("Fetching statistics...")

	if s.View() == "" {
		t.Error("View returned empty")
	}
	if !strings.Contains(s.ViewWithLabel(), "Fetching statistics...") {
		t.Error("ViewWithLabel should include the label")
	}
	if s.Init() == nil {
		t.Error("Init should return command")
	}
	if _, cmd := s.Update(spinner.TickMsg{}); cmd == nil {
		t.Error("Update should return command for tick")
	}

	if bare := NewSpinner(""); bare.ViewWithLabel() != bare.View() {
		t.Error("an empty label should render the glyph alone")
	}
}

func TestFormatHour(t *testing.T) {
	tests := []struct {
		hour float64
		want string
	}{
		{0, "00:00"},
		{13.5, "13:30"},
		{23.99, "23:59"},
		{6.25, "06:15"},
		{9.0166, "09:01"},
		{22, "22:00"},
		{24, "24:00"},
		{23.999, "24:00"},
	}

	for _, tt := range tests {
		if got := FormatHour(tt.hour); got != tt.want {
			t.Errorf("FormatHour(%v) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}

	for _, tt := range tests {
		if got := FormatCount(tt.n); got != tt.want {
			t.Errorf("FormatCount(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestYAxisUpperBound(t *testing.T) {
	tests := []struct {
		name string
		peak int64
		want int64
	}{
		{"BelowFloor", 500, 1000},
		{"AtFloor", 1000, 1000},
		{"AboveFloor", 5000, 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := []models.HourlyTokenPoint{{Hour: 1, Tokens: 10}, {Hour: 2, Tokens: tt.peak}}
			if got := YAxisUpperBound(points); got != tt.want {
				t.Errorf("YAxisUpperBound() = %d, want %d", got, tt.want)
			}
		})
	}

	if got := YAxisUpperBound(nil); got != 1000 {
		t.Errorf("YAxisUpperBound(nil) = %d, want 1000", got)
	}
}

func TestYAxisTicks(t *testing.T) {
	got := YAxisTicks(1000)
	want := []float64{1000, 800, 600, 400, 200, 0}

	if len(got) != YTickCount {
		t.Fatalf("len = %d, want %d", len(got), YTickCount)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("tick[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestHourColumn(t *testing.T) {
	tests := []struct {
		hour float64
		cols int
		want int
	}{
		{0, 49, 0},
		{12, 49, 24},
		{24, 49, 48},
		{30, 10, 9},
		{-1, 10, 0},
		{5, 1, 0},
	}

	for _, tt := range tests {
		if got := HourColumn(tt.hour, tt.cols); got != tt.want {
			t.Errorf("HourColumn(%v, %d) = %d, want %d", tt.hour, tt.cols, got, tt.want)
		}
	}
}

func TestResample(t *testing.T) {
	data := resample([]models.HourlyTokenPoint{{Hour: 0, Tokens: 0}, {Hour: 24, Tokens: 100}}, 5)
	want := []float64{0, 25, 50, 75, 100}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("data[%d] = %v, want %v", i, data[i], want[i])
		}
	}

	data = resample([]models.HourlyTokenPoint{{Hour: 12, Tokens: 10}}, 5)
	for i, v := range data {
		if i == 2 {
			if v != 10 {
				t.Errorf("data[2] = %v, want 10", v)
			}
			continue
		}
		if !math.IsNaN(v) {
			t.Errorf("data[%d] = %v, want NaN outside the series", i, v)
		}
	}
}

func chartLines(points []models.HourlyTokenPoint, focus, width int) []string {
	return strings.Split(ansi.Strip(RenderTokenChart(points, focus, width)), "\n")
}

func TestRenderTokenChart_Empty(t *testing.T) {
	out := RenderTokenChart(nil, 0, 80)
	if !strings.Contains(out, "No data available") {
		t.Errorf("expected empty-state text, got %q", out)
	}
}

func TestRenderTokenChart_Placeholder(t *testing.T) {
	points := models.DefaultHourlySeries()
	lines := chartLines(points, -1, 80)

	plotRows := ChartHeight + 1
	if len(lines) != plotRows+2 {
		t.Fatalf("got %d lines, want %d", len(lines), plotRows+2)
	}

	wantLabels := map[int]string{0: "1,000", 2: "800", 4: "600", 6: "400", 8: "200", 10: "0"}
	for r := 0; r < plotRows; r++ {
		if want, ok := wantLabels[r]; ok {
			fields := strings.Fields(lines[r])
			if len(fields) == 0 || fields[0] != want {
				t.Errorf("row %d label = %q, want %q", r, lines[r], want)
			}
			continue
		}
		if !strings.HasPrefix(lines[r], "      ┤") {
			t.Errorf("row %d should be unlabelled, got %q", r, lines[r])
		}
	}

	// Zero series sits on the bottom row, starting on the axis.
	if !strings.HasPrefix(lines[10], "    0 ┼") {
		t.Errorf("zero row = %q", lines[10])
	}

	markers := []rune(lines[plotRows])
	layout := TokenChartLayout(points, 80)
	count := 0
	for _, r := range markers {
		if r == PointMarker {
			count++
		}
	}
	if count != len(points) {
		t.Errorf("marker count = %d, want %d", count, len(points))
	}
	for _, p := range points {
		idx := layout.PlotOffset() + HourColumn(p.Hour, layout.Columns)
		if idx >= len(markers) || markers[idx] != PointMarker {
			t.Errorf("missing marker for hour %v at column %d", p.Hour, idx)
		}
	}

	xLabels := lines[plotRows+1]
	for _, want := range []string{"00:00", "12:00", "24:00"} {
		if !strings.Contains(xLabels, want) {
			t.Errorf("x labels %q missing %s", xLabels, want)
		}
	}
}

func TestRenderTokenChart_FocusTooltip(t *testing.T) {
	points := []models.HourlyTokenPoint{
		{Hour: 0, Tokens: 100},
		{Hour: 13.5, Tokens: 5000},
		{Hour: 24, Tokens: 0},
	}
	lines := chartLines(points, 1, 60)

	if !strings.HasPrefix(lines[0], "5,000 ") {
		t.Errorf("top label = %q, want 5,000", lines[0])
	}

	tip := lines[len(lines)-1]
	if tip != "13:30 · 5,000 tokens" {
		t.Errorf("tooltip = %q", tip)
	}

	layout := TokenChartLayout(points, 60)
	markers := []rune(lines[ChartHeight+1])
	focusIdx := layout.PlotOffset() + HourColumn(13.5, layout.Columns)
	if markers[focusIdx] != FocusedMarker {
		t.Errorf("expected focused marker at %d, row %q", focusIdx, lines[ChartHeight+1])
	}
	if n := strings.Count(lines[ChartHeight+1], string(PointMarker)); n != 2 {
		t.Errorf("plain markers = %d, want 2", n)
	}
}

func TestRenderTokenChart_FocusOutOfRange(t *testing.T) {
	out := ansi.Strip(RenderTokenChart(models.DefaultHourlySeries(), 99, 80))
	if strings.Contains(out, "tokens") {
		t.Error("no tooltip expected for an out-of-range focus")
	}
	if strings.ContainsRune(out, FocusedMarker) {
		t.Error("no focused marker expected for an out-of-range focus")
	}
}

func TestRenderTokenChart_NarrowWidth(t *testing.T) {
	lines := chartLines([]models.HourlyTokenPoint{{Hour: 12, Tokens: 2000}}, 0, 10)

	if !strings.HasPrefix(lines[0], "2,000 ") {
		t.Errorf("top label = %q", lines[0])
	}
	xLabels := lines[ChartHeight+2]
	if !strings.Contains(xLabels, "00:00") || !strings.Contains(xLabels, "24:00") {
		t.Errorf("x labels = %q", xLabels)
	}
	if lines[len(lines)-1] != "12:00 · 2,000 tokens" {
		t.Errorf("tooltip = %q", lines[len(lines)-1])
	}
}

func TestRenderCard(t *testing.T) {
	out := RenderCard("Daily Total", "1,234,567", lipgloss.Color("#3b82f6"), 24)
	plain := ansi.Strip(out)

	if !strings.Contains(plain, "Daily Total") || !strings.Contains(plain, "1,234,567") {
		t.Errorf("card missing content: %q", plain)
	}
	if w := lipgloss.Width(out); w != 24 {
		t.Errorf("card width = %d, want 24", w)
	}
	if w := lipgloss.Width(RenderCard("x", "0", lipgloss.Color("1"), 3)); w != MinCardWidth {
		t.Errorf("narrow card width = %d, want %d", w, MinCardWidth)
	}
}

func TestRenderLegend(t *testing.T) {
	out := ansi.Strip(RenderLegend([]LegendItem{{Label: "tokens", Color: lipgloss.Color("#6366f1")}}))
	if out != "■ tokens" {
		t.Errorf("RenderLegend() = %q", out)
	}
}
