package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	sweepsTotal   *prometheus.CounterVec
	sweepDuration prometheus.Histogram
	sweptEntries  prometheus.Counter
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	sweepsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "cache",
			Name:        "sweeps_total",
			Help:        "Query cache sweeps by status.",
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	sweepDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "cache",
			Name:        "sweep_duration_seconds",
			Help:        "Query cache sweep duration in seconds.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		},
	)
	sweptEntries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "cache",
			Name:        "swept_entries_total",
			Help:        "Expired query cache entries removed.",
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(sweepsTotal, sweepDuration, sweptEntries)

	return &WorkerMetrics{
		registry:      registry,
		sweepsTotal:   sweepsTotal,
		sweepDuration: sweepDuration,
		sweptEntries:  sweptEntries,
	}
}

func (m *WorkerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) ObserveSweep(deleted int64, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.sweepsTotal.WithLabelValues(status).Inc()
	m.sweepDuration.Observe(duration.Seconds())
	if deleted > 0 {
		m.sweptEntries.Add(float64(deleted))
	}
}
