package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Assistant-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clippost",
			Subsystem: "assistant_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clippost",
			Subsystem: "assistant_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	// Turn counters
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clippost",
			Subsystem: "assistant_api",
			Name:      "turns_total",
			Help:      "Total conversational turns by provider and outcome",
		},
		[]string{"provider", "status"},
	)

	// Tool call counters
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clippost",
			Subsystem: "assistant_api",
			Name:      "tool_calls_total",
			Help:      "Total tool invocations requested by models",
		},
		[]string{"tool_name"},
	)

	// Confirmation counters
	ConfirmationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clippost",
			Subsystem: "assistant_api",
			Name:      "confirmations_total",
			Help:      "Total write confirmation executions by outcome",
		},
		[]string{"tool_name", "status"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordTurn records a completed or failed conversational turn
func RecordTurn(provider, status string) {
	TurnsTotal.WithLabelValues(provider, status).Inc()
}

// RecordToolCall records a tool invocation
func RecordToolCall(toolName string) {
	ToolCallsTotal.WithLabelValues(toolName).Inc()
}

// RecordConfirmation records a confirmation execution attempt
func RecordConfirmation(toolName, status string) {
	ConfirmationsTotal.WithLabelValues(toolName, status).Inc()
}
