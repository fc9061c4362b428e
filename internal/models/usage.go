package models

import "sort"

const (
	// HoursPerDay is the upper bound of the chart's x domain.
	HoursPerDay = 24

	placeholderPoints = 12
)

// HourlyTokenPoint is one sample of the intraday usage series.
// Hour is fractional, so 13.5 means 13:30.
type HourlyTokenPoint struct {
	Hour   float64 `json:"hour"`
	Tokens int64   `json:"tokens"`
}

// DefaultHourlySeries returns the zero-valued placeholder series
// (hours 0, 2, ..., 22) rendered before any data arrives.
func DefaultHourlySeries() []HourlyTokenPoint {
	points := make([]HourlyTokenPoint, placeholderPoints)
	for i := range points {
		points[i] = HourlyTokenPoint{Hour: float64(i * 2)}
	}
	return points
}

// SortByHour sorts a series in place by ascending hour, keeping the
// relative order of equal hours.
func SortByHour(points []HourlyTokenPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Hour < points[j].Hour
	})
}

// PeakTokens returns the largest token count in the series, or 0.
func PeakTokens(points []HourlyTokenPoint) int64 {
	var peak int64
	for _, p := range points {
		if p.Tokens > peak {
			peak = p.Tokens
		}
	}
	return peak
}
