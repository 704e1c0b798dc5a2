// Package observability provides Prometheus metrics for blueprint streams
// and HTTP middleware for the mock backend.
package observability

import "github.com/prometheus/client_golang/prometheus"

// StreamBuckets defines histogram buckets suited for long-running analysis
// streams, ranging from 100ms to 10 minutes.
var StreamBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600}

var (
	// StreamsTotal counts finished streams by operation and outcome
	// (sentinel, eof, aborted, errored).
	StreamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blueprint_streams_total",
			Help: "Finished streams",
		},
		[]string{"operation", "outcome"},
	)

	// StreamDuration records the wall time of a stream from request to
	// termination.
	StreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blueprint_stream_duration_seconds",
			Help:    "Stream duration",
			Buckets: StreamBuckets,
		},
		[]string{"operation"},
	)

	// StreamBytesTotal counts content bytes delivered to stream handlers.
	// The end-of-stream marker is not counted.
	StreamBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blueprint_stream_bytes_total",
			Help: "Stream content bytes delivered to handlers",
		},
		[]string{"operation"},
	)

	// StreamsActive tracks streams currently in flight.
	StreamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "blueprint_streams_active",
			Help: "Active streams",
		},
	)

	// RequestsTotal counts HTTP requests served by the mock backend by
	// method, route, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blueprint_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blueprint_request_duration_seconds",
			Help:    "Request duration",
			Buckets: StreamBuckets,
		},
		[]string{"method", "route"},
	)

	// AuthRejectedTotal counts mock backend requests rejected by the auth
	// middleware, by reason (unauthenticated, rate_limited).
	AuthRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blueprint_auth_rejected_total",
			Help: "Requests rejected by authentication or rate limiting",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		StreamsTotal,
		StreamDuration,
		StreamBytesTotal,
		StreamsActive,
		RequestsTotal,
		RequestDuration,
		AuthRejectedTotal,
	)
}
