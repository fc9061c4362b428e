// Package metrics exposes Prometheus instrumentation for backend fetches and
// polling units, plus a small HTTP router to scrape them.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gtd"

// Fetch and refresh metrics.
var (
	FetchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Total number of statistics backend requests",
		},
		[]string{"endpoint", "outcome"}, // outcome: ok / transport / status / payload
	)

	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Statistics backend request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	RefreshResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_results_total",
			Help:      "Slot refresh results by polling unit",
		},
		[]string{"unit", "slot", "result"},
	)

	PollCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Refresh cycles fired by polling units",
		},
		[]string{"unit"},
	)
)

var registerOnce sync.Once

// Register registers all collectors with the default registry. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(FetchRequestsTotal)
		prometheus.MustRegister(FetchDuration)
		prometheus.MustRegister(RefreshResultsTotal)
		prometheus.MustRegister(PollCyclesTotal)
	})
}
