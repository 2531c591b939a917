// Package metrics holds the process-wide Prometheus collectors
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bunshare"

var (
	// AdapterDuration is the latency of one ranking source call
	AdapterDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "adapter_duration_seconds",
			Help:      "Latency of recommendation source calls",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2, 3, 5},
		},
		[]string{"engine", "strategy", "outcome"}, // outcome: ok error timeout rejected
	)

	// Recommendations counts served recommendation responses
	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendation responses by strategy and outcome",
		},
		[]string{"strategy", "outcome"}, // outcome: ok degraded error
	)

	// BreakerState is 0 closed, 1 half-open, 2 open
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	// BreakerTransitions counts breaker state changes
	BreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// RateLimitDecisions counts limiter outcomes
	RateLimitDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_decisions_total",
			Help:      "Rate limiter decisions",
		},
		[]string{"limiter", "outcome"}, // outcome: allowed rejected failopen
	)

	// Impressions counts impression entries by what happened to them
	Impressions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "impressions_total",
			Help:      "Impression entries by result and filter reason",
		},
		[]string{"result", "reason"}, // result: recorded duplicate filtered
	)

	// SinkEvents counts analytics sink rows by outcome
	SinkEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_events_total",
			Help:      "Analytics sink rows by table and outcome",
		},
		[]string{"table", "outcome"}, // outcome: flushed dropped failed
	)

	// SinkQueueDepth is the number of rows waiting to be flushed
	SinkQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sink_queue_depth",
			Help:      "Rows buffered in the analytics sink",
		},
		[]string{"table"},
	)

	// Comparisons counts A/B comparison runs
	Comparisons = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ab_comparisons_total",
			Help:      "A/B comparison runs by outcome",
		},
		[]string{"outcome"}, // outcome: both postgresql_only application_only none
	)

	// ComparisonPanics counts engine panics contained during a comparison
	ComparisonPanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ab_engine_panics_total",
			Help:      "Engine panics recovered during A/B comparisons",
		},
		[]string{"engine"},
	)
)

// Handler serves the default registry
func Handler() http.Handler { return promhttp.Handler() }
