package utils

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes recorded by the searchers.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeRateLimited = "rate_limited"
	OutcomeNotFound    = "not_found"
)

// Metrics collects per-run counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	items    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates a Metrics with its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tstrend_source_requests_total",
			Help: "Total number of API requests issued, by source and outcome.",
		}, []string{"source", "outcome"}),
		items: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tstrend_items_fetched_total",
			Help: "Total number of result items fetched, by source.",
		}, []string{"source"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tstrend_source_request_duration_seconds",
			Help:    "Duration of API requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
	}
}

// ObserveRequest records one API call.
func (m *Metrics) ObserveRequest(source, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(source, outcome).Inc()
	m.duration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// AddItems records n fetched items for source.
func (m *Metrics) AddItems(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.items.WithLabelValues(source).Add(float64(n))
}

// WriteTextfile writes all metrics in the text exposition format, suitable for
// node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
