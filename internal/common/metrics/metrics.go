// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search request outcomes
const (
	OutcomeCommitted = "committed"
	OutcomeDiscarded = "discarded"
	OutcomeFailed    = "failed"
)

var (
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentcomps_search_requests_total",
			Help: "Search requests by outcome; discarded means superseded by a newer request",
		},
		[]string{"outcome"},
	)

	SearchRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rentcomps_search_request_duration_seconds",
			Help:    "Duration of search fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	SearchInflight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rentcomps_search_inflight",
			Help: "Search fetches currently outstanding",
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentcomps_search_cache_lookups_total",
			Help: "Result cache lookups by layer and result",
		},
		[]string{"layer", "result"},
	)
)
