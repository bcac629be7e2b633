package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dispatch"

var (
	QuotesTotal    = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "quotes_total", Help: "Total number of route quotes issued"})
	ConfirmsTotal  = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "confirms_total", Help: "Total number of confirmed rides"})
	NoMatchTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "no_match_total", Help: "Confirm attempts with no eligible idle vehicle"})
	ConfirmLatency = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "confirm_latency_seconds", Help: "Confirm latency seconds"})

	CompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "completions_total", Help: "Completed rides by cause"},
		[]string{"cause"},
	)
	CancellationsTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "cancellations_total", Help: "Cancelled rides"})
	ActiveRides        = promauto.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "active_rides", Help: "Rides currently in progress"})

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
