package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus instruments for the detection pipeline. Each
// Controller owns its own registry so tests can construct controllers freely.
type Metrics struct {
	registry *prometheus.Registry

	detectionsProcessed *prometheus.CounterVec
	inferenceDuration   prometheus.Histogram
	saveFailures        prometheus.Counter
}

// NewMetrics creates and registers the instruments.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		detectionsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "melonguard_detections_processed_total",
			Help: "Number of detection runs processed, by input source.",
		}, []string{"source"}),
		inferenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "melonguard_inference_duration_seconds",
			Help:    "Duration of one detection run including aggregation.",
			Buckets: prometheus.DefBuckets,
		}),
		saveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "melonguard_history_save_failures_total",
			Help: "Number of failed automatic history saves.",
		}),
	}

	registry.MustRegister(m.detectionsProcessed, m.inferenceDuration, m.saveFailures)
	return m
}

// ObserveDetection records one detection run.
func (m *Metrics) ObserveDetection(source string, d time.Duration) {
	m.detectionsProcessed.WithLabelValues(source).Inc()
	m.inferenceDuration.Observe(d.Seconds())
}

// CountSaveFailure records one failed history save.
func (m *Metrics) CountSaveFailure() {
	m.saveFailures.Inc()
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
