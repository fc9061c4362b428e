// Package models defines data structures and domain types.
package models

// SummaryStats holds the headline counters shown on the summary cards.
type SummaryStats struct {
	DailyTotal    int64 `json:"daily_total"`
	MonthlyTotal  int64 `json:"monthly_total"`
	PeakDay       int64 `json:"peak_day"`
	LifetimeTotal int64 `json:"lifetime_total"`
}

// DefaultSummaryStats returns the snapshot shown before the first successful fetch.
func DefaultSummaryStats() SummaryStats {
	return SummaryStats{}
}

// GraphStats holds the secondary statistics shown next to the usage chart.
type GraphStats struct {
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
	PeakHours    string `json:"peak_hours"`
	DailyChange  string `json:"daily_change"`
}

// DefaultGraphStats returns the placeholder stats list.
func DefaultGraphStats() GraphStats {
	return GraphStats{
		PeakHours:   "N/A",
		DailyChange: "0%",
	}
}
