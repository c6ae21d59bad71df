// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// SubmissionsTotal tracks message submissions by outcome.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_submissions_total",
			Help: "Total message submissions",
		},
		[]string{"outcome"},
	)

	// RegenerationsTotal tracks regeneration requests by outcome.
	RegenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_regenerations_total",
			Help: "Total regeneration requests",
		},
		[]string{"outcome"},
	)

	// ChunksTotal tracks streamed chunks applied to placeholder messages.
	ChunksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_stream_chunks_total",
			Help: "Total streamed chunks applied",
		},
	)

	// StaleCallbacksTotal tracks late chunk/resolution callbacks dropped
	// after clear() detached their target message.
	StaleCallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_stale_callbacks_total",
			Help: "Late callbacks silently dropped",
		},
	)

	// QueryDuration tracks external query duration.
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "query_duration_seconds",
			Help:    "External query duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"provider", "status"},
	)

	// FeedbackTotal tracks feedback recorded on assistant messages.
	FeedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_feedback_total",
			Help: "Total feedback recorded",
		},
		[]string{"rating"},
	)

	// SessionsActive tracks the number of live sessions.
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of live sessions",
		},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordQuery records metrics for one external query.
func RecordQuery(provider, status string, duration float64) {
	QueryDuration.WithLabelValues(provider, status).Observe(duration)
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
