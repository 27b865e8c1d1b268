package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels operations that completed normally.
	OutcomeSuccess = "success"
	// OutcomeError labels operations that failed outright.
	OutcomeError = "error"
)

var (
	fetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "peopledeck",
			Name:      "fetches_total",
			Help:      "Upstream page fetches handled, partitioned by outcome kind.",
		},
		[]string{"outcome"},
	)

	fetchDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "peopledeck",
			Name:      "fetch_seconds",
			Help:      "Upstream page fetch latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "peopledeck",
			Name:      "page_cache_lookups_total",
			Help:      "Page cache lookups, partitioned by hit/miss.",
		},
		[]string{"result"},
	)

	coalescedWaitersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "peopledeck",
			Name:      "coalesced_waiters_total",
			Help:      "Callers that joined an already in-flight request instead of issuing their own.",
		},
	)

	searchEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "peopledeck",
			Name:      "search_events_total",
			Help:      "Search events submitted for logging, partitioned by status.",
		},
		[]string{"status"},
	)

	aggregationRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "peopledeck",
			Name:      "aggregation_runs_total",
			Help:      "Stats aggregation runs, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	aggregationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "peopledeck",
			Name:      "aggregation_seconds",
			Help:      "Stats aggregation run latency in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)
)

// Register attaches peopledeck collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		fetchesTotal,
		fetchDurationSeconds,
		cacheLookupsTotal,
		coalescedWaitersTotal,
		searchEventsTotal,
		aggregationRunsTotal,
		aggregationDurationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveFetch records one upstream fetch with its duration and outcome label.
func ObserveFetch(duration time.Duration, outcome string) {
	if outcome == "" {
		outcome = OutcomeSuccess
	}
	fetchesTotal.WithLabelValues(outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	fetchDurationSeconds.Observe(duration.Seconds())
}

// CacheLookup records a page cache hit or miss.
func CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// CoalescedWaiter records a caller sharing an in-flight request.
func CoalescedWaiter() {
	coalescedWaitersTotal.Inc()
}

// SearchEvent records a submitted search event. Status is one of
// "logged", "rejected", "failed".
func SearchEvent(status string) {
	searchEventsTotal.WithLabelValues(status).Inc()
}

// ObserveAggregation records one stats aggregation run.
func ObserveAggregation(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	aggregationRunsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	aggregationDurationSeconds.Observe(duration.Seconds())
}
