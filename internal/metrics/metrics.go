// Package metrics registers the Prometheus collectors of the signal layer.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LikeMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinesignal_like_mutations_total",
			Help: "Like add/remove calls by operation and outcome",
		},
		[]string{"operation", "outcome"}, // outcome: ok, conflict, not_found, error
	)

	ReactionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinesignal_reaction_transitions_total",
			Help: "Review reaction operations by operation and outcome",
		},
		[]string{"operation", "outcome"}, // outcome: applied, noop, error
	)

	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinesignal_recommendations_total",
			Help: "Recommendation requests by result",
		},
		[]string{"result"}, // result: neighbor, empty, error
	)

	EnrichmentBatchCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinesignal_enrichment_batch_calls_total",
			Help: "Batched relation lookups issued by the enrichment assembler",
		},
		[]string{"relation"},
	)

	EnrichmentFilms = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cinesignal_enrichment_films",
			Help:    "Number of films per enrichment call",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 1000},
		},
	)

	FeedPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinesignal_feed_publish_failures_total",
			Help: "Activity feed events that could not be delivered",
		},
		[]string{"sink"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinesignal_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinesignal_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)
)

// RecordAPIRequest records one served request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
