package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "carpool"

var (
	MatchesProposed = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "matches_proposed_total", Help: "Matches created by searches"})
	MatchesExpired  = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "matches_expired_total", Help: "Proposed matches expired by the sweeper"})
	FindLatency     = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "find_latency_seconds", Help: "Match search latency seconds"})

	// Allocations counts capacity reservations by path (accept, booking)
	// and outcome (ok, exhausted, conflict, error).
	Allocations = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "allocations_total", Help: "Capacity reservations by path and outcome"},
		[]string{"path", "outcome"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "notifications_failed_total", Help: "Notifier deliveries that failed"},
		[]string{"sink"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
