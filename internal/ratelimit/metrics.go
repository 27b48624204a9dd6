package ratelimit

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RateLimitMetrics holds Prometheus metrics for limiter decisions.
type RateLimitMetrics struct {
	decisionsTotal *prometheus.CounterVec
	trackedClients prometheus.Gauge
	trackedEntries prometheus.Gauge
}

var (
	rateLimitMetricsInstance *RateLimitMetrics
	rateLimitMetricsOnce     sync.Once
)

// GetRateLimitMetrics returns the singleton limiter metrics instance.
func GetRateLimitMetrics() *RateLimitMetrics {
	rateLimitMetricsOnce.Do(func() {
		rateLimitMetricsInstance = newRateLimitMetrics()
	})
	return rateLimitMetricsInstance
}

// MustRegister registers all limiter metric collectors with the given
// Prometheus registry so they appear on the service's custom /metrics
// endpoint.
func (m *RateLimitMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.decisionsTotal,
		m.trackedClients,
		m.trackedEntries,
	)
}

// Init pre-initializes common label combinations with zero values so
// metric lines appear immediately after startup. Idempotent.
func (m *RateLimitMetrics) Init() {
	m.decisionsTotal.WithLabelValues("allowed", "")
	m.decisionsTotal.WithLabelValues("denied", ReasonMinute)
	m.decisionsTotal.WithLabelValues("denied", ReasonHour)
}

func newRateLimitMetrics() *RateLimitMetrics {
	return &RateLimitMetrics{
		decisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "moodapi",
				Subsystem: "ratelimit",
				Name:      "decisions_total",
				Help:      "Total number of rate limit decisions",
			},
			[]string{"result", "window"},
		),
		trackedClients: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "moodapi",
				Subsystem: "ratelimit",
				Name:      "tracked_clients",
				Help:      "Current number of tracked clients",
			},
		),
		trackedEntries: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "moodapi",
				Subsystem: "ratelimit",
				Name:      "tracked_entries",
				Help:      "Current number of tracked request events",
			},
		),
	}
}
