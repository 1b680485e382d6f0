// Package metrics provides Prometheus metrics and HTTP middleware for
// monitoring the s3proxy gateway.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// TransferBuckets defines histogram buckets for object transfers, ranging
// from 5ms to 5 minutes.
var TransferBuckets = []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 30, 120, 300}

var (
	// RequestsTotal counts HTTP requests by method, route pattern and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s3proxy_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds, body relay included.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "s3proxy_request_duration_seconds",
			Help:    "Request duration",
			Buckets: TransferBuckets,
		},
		[]string{"method", "route"},
	)

	// ActiveStreams tracks object bodies currently being relayed.
	ActiveStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "s3proxy_streams_active",
			Help: "Active object streams",
		},
	)

	// BytesRelayedTotal counts body bytes written to clients.
	BytesRelayedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "s3proxy_relayed_bytes_total",
			Help: "Bytes relayed to clients",
		},
	)

	// StreamAbortsTotal counts relays that ended early, by side.
	StreamAbortsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s3proxy_stream_aborts_total",
			Help: "Relays ended before the body was complete",
		},
		[]string{"side"},
	)

	// BackendRequestsTotal counts backend calls by operation and result code.
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s3proxy_backend_requests_total",
			Help: "Backend requests",
		},
		[]string{"operation", "code"},
	)

	// BackendLatency records time to first byte of backend calls in seconds.
	BackendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "s3proxy_backend_latency_seconds",
			Help:    "Backend latency",
			Buckets: TransferBuckets,
		},
		[]string{"operation"},
	)

	// BackendReady is 1 while the backend handle is ready.
	BackendReady = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "s3proxy_backend_ready",
			Help: "Backend handle readiness",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		ActiveStreams,
		BytesRelayedTotal,
		StreamAbortsTotal,
		BackendRequestsTotal,
		BackendLatency,
		BackendReady,
	)
}
