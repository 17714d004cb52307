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
			Name:    "gateway_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// ProviderCallDuration tracks provider call latency by operation and outcome.
	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_call_duration_seconds",
			Help:    "External AI provider call duration",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "operation", "outcome"},
	)

	// ProviderTokensTotal tracks total provider tokens processed.
	ProviderTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_tokens_total",
			Help: "Total provider tokens processed",
		},
		[]string{"model", "direction"},
	)

	// FallbackResponsesTotal counts degraded responses served instead of provider output.
	FallbackResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_responses_total",
			Help: "Responses served from static fallbacks",
		},
		[]string{"operation", "reason"},
	)

	// ProviderStatus exposes the current provider status as a one-hot gauge.
	ProviderStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "provider_status",
			Help: "Current provider status (1 for the active status)",
		},
		[]string{"status"},
	)

	// UploadsRejectedTotal counts uploads refused by the acceptance layer.
	UploadsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_rejected_total",
			Help: "Uploads rejected before reaching a handler",
		},
		[]string{"reason"},
	)

	// TempFilesActive tracks temporary files currently on disk.
	TempFilesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "temp_files_active",
			Help: "Number of request-scoped temporary files on disk",
		},
	)

	// EventsPublishFailuresTotal counts gateway events that could not be published.
	EventsPublishFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_publish_failures_total",
			Help: "Gateway events that failed to publish",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, route, status string, duration float64) {
	RequestDuration.WithLabelValues(method, route, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, route, status).Inc()
}

// RecordProviderCall records metrics for one provider call.
func RecordProviderCall(provider, operation, outcome string, duration float64) {
	ProviderCallDuration.WithLabelValues(provider, operation, outcome).Observe(duration)
}

// RecordTokens records token usage reported by the provider.
func RecordTokens(model string, tokensIn, tokensOut int) {
	ProviderTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	ProviderTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordFallback records a degraded response.
func RecordFallback(operation, reason string) {
	FallbackResponsesTotal.WithLabelValues(operation, reason).Inc()
}

// SetProviderStatus marks status as the only active provider status.
func SetProviderStatus(status string, all []string) {
	for _, s := range all {
		ProviderStatus.WithLabelValues(s).Set(0)
	}
	ProviderStatus.WithLabelValues(status).Set(1)
}

// IncrementTempFiles increments the active temp file count.
func IncrementTempFiles() {
	TempFilesActive.Inc()
}

// DecrementTempFiles decrements the active temp file count.
func DecrementTempFiles() {
	TempFilesActive.Dec()
}
