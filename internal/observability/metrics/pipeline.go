package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
)

// PipelineMetrics records retrieval, index, cache and answer telemetry.
type PipelineMetrics struct {
	searchTotal      *prometheus.CounterVec
	searchResults    prometheus.Histogram
	searchDuration   *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	indexRebuilds    *prometheus.CounterVec
	indexDuration    prometheus.Histogram
	indexDocuments   prometheus.Gauge
	answerConfidence prometheus.Histogram
	answerReviews    *prometheus.CounterVec
	answerFailures   prometheus.Counter
	indexEvents      *prometheus.CounterVec
}

var _ ports.PipelineObserver = (*PipelineMetrics)(nil)

func NewPipelineMetrics(registerer prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		searchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Search requests by result source.",
		}, []string{"source"}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "results",
			Help:      "Results returned per search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50, 100},
		}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Search latency by result source.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Query cache lookups by result.",
		}, []string{"result"}),
		indexRebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "rebuilds_total",
			Help:      "Index rebuilds by status.",
		}, []string{"status"}),
		indexDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "rebuild_duration_seconds",
			Help:      "Index rebuild duration.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		indexDocuments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "documents",
			Help:      "Documents in the current index snapshot.",
		}),
		answerConfidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "answer",
			Name:      "confidence",
			Help:      "Confidence reported with synthesized answers.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),
		answerReviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "answer",
			Name:      "reviews_total",
			Help:      "Answers escalated to human review by reason.",
		}, []string{"reason"}),
		answerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "answer",
			Name:      "failures_total",
			Help:      "Answers that fell back because generation failed.",
		}),
		indexEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "events_total",
			Help:      "Documents-changed events handled, by status.",
		}, []string{"status"}),
	}

	registerer.MustRegister(
		m.searchTotal,
		m.searchResults,
		m.searchDuration,
		m.cacheLookups,
		m.indexRebuilds,
		m.indexDuration,
		m.indexDocuments,
		m.answerConfidence,
		m.answerReviews,
		m.answerFailures,
		m.indexEvents,
	)
	return m
}

func (m *PipelineMetrics) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *PipelineMetrics) ObserveSearch(source string, results int, duration time.Duration) {
	m.searchTotal.WithLabelValues(source).Inc()
	m.searchResults.Observe(float64(results))
	m.searchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveIndexBuild(documents int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.indexRebuilds.WithLabelValues(status).Inc()
	m.indexDuration.Observe(duration.Seconds())
	if err == nil {
		m.indexDocuments.Set(float64(documents))
	}
}

func (m *PipelineMetrics) ObserveAnswer(confidence float64, needsReview bool, reason string, failed bool) {
	if failed {
		m.answerFailures.Inc()
	} else {
		m.answerConfidence.Observe(confidence)
	}
	if needsReview {
		m.answerReviews.WithLabelValues(reason).Inc()
	}
}

func (m *PipelineMetrics) ObserveIndexEvent(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.indexEvents.WithLabelValues(status).Inc()
}
