package services

import (
	"context"
	"time"

	"github.com/j-veylop/gemini-token-dashboard/internal/models"
	"github.com/j-veylop/gemini-token-dashboard/internal/services/poller"
)

// Polling unit names. They double as metric labels.
const (
	SummaryUnit = "summary"
	UsageUnit   = "usage"
)

// StatsFetcher is the statistics backend as seen by the feeds.
type StatsFetcher interface {
	FetchSummaryStats(ctx context.Context) (models.SummaryStats, error)
	FetchTokenUsage(ctx context.Context) ([]models.HourlyTokenPoint, error)
	FetchGraphStats(ctx context.Context) (models.GraphStats, error)
}

// SummaryFeed polls the summary counters.
type SummaryFeed struct {
	Unit  *poller.Unit
	Stats *poller.Slot[models.SummaryStats]
}

// NewSummaryFeed builds the summary polling unit. It does not start it.
func NewSummaryFeed(src StatsFetcher, interval time.Duration, clock poller.Clock) *SummaryFeed {
	stats := poller.NewSlot("stats", models.DefaultSummaryStats(), src.FetchSummaryStats)
	return &SummaryFeed{
		Unit:  poller.NewUnit(SummaryUnit, interval, clock, stats),
		Stats: stats,
	}
}

// UsageFeed polls the intraday series and the graph stats on one timer.
type UsageFeed struct {
	Unit   *poller.Unit
	Series *poller.Slot[[]models.HourlyTokenPoint]
	Stats  *poller.Slot[models.GraphStats]
}

// NewUsageFeed builds the usage polling unit. It does not start it.
func NewUsageFeed(src StatsFetcher, interval time.Duration, clock poller.Clock) *UsageFeed {
	series := poller.NewSlot("series", models.DefaultHourlySeries(), src.FetchTokenUsage)
	stats := poller.NewSlot("graph-stats", models.DefaultGraphStats(), src.FetchGraphStats)
	return &UsageFeed{
		Unit:   poller.NewUnit(UsageUnit, interval, clock, series, stats),
		Series: series,
		Stats:  stats,
	}
}

// LastUpdated returns the newer of the two slots' update times.
func (f *UsageFeed) LastUpdated() time.Time {
	a, b := f.Series.UpdatedAt(), f.Stats.UpdatedAt()
	if b.After(a) {
		return b
	}
	return a
}
