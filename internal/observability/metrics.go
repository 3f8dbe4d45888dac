// Package observability exposes Prometheus metrics for the synthesis
// pipeline. Metrics are served on the health port under /metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	speechRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tonegate_speech_requests_total",
		Help: "Total speech requests by outcome",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tonegate_speech_request_duration_seconds",
		Help:    "End-to-end speech request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tonegate_cache_lookups_total",
		Help: "Response cache lookups by result",
	}, []string{"result"})

	engineInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tonegate_engine_invocations_total",
		Help: "Inference engine invocations by status",
	}, []string{"status"})

	engineLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tonegate_engine_latency_seconds",
		Help:    "Per-segment inference latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	queueWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tonegate_engine_queue_wait_seconds",
		Help:    "Time spent waiting for an inference slot in seconds",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60},
	})

	encodeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tonegate_encode_total",
		Help: "Transcoder invocations by format and status",
	}, []string{"format", "status"})
)

// RecordRequest counts a finished speech request by outcome
// (e.g., "ok", "cached", "invalid", "error", "timeout").
func RecordRequest(status string, duration time.Duration) {
	speechRequests.WithLabelValues(status).Inc()
	requestDuration.Observe(duration.Seconds())
}

// RecordCacheLookup counts a response cache lookup.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}

// RecordEngineCall counts one inference invocation and its latency.
func RecordEngineCall(d time.Duration, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	engineInvocations.WithLabelValues(status).Inc()
	engineLatency.Observe(d.Seconds())
}

// RecordQueueWait observes time spent waiting for an inference slot.
func RecordQueueWait(d time.Duration) {
	queueWait.Observe(d.Seconds())
}

// RecordEncode counts one transcoder invocation.
func RecordEncode(format string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	encodeTotal.WithLabelValues(format, status).Inc()
}
