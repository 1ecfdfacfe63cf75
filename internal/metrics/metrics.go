package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Scrape outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeBlocked = "blocked"
	OutcomeTimeout = "timeout"
	OutcomeError   = "error"
)

// Metrics holds the Prometheus collectors for the intake service. All methods
// are safe on a nil receiver so callers can run without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	scrapesTotal     *prometheus.CounterVec
	scrapeDuration   prometheus.Histogram
	submissionsTotal *prometheus.CounterVec
	uploadsTotal     *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		scrapesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "scrapes_total",
			Help:      "Product page scrapes by outcome.",
		}, []string{"outcome"}),
		scrapeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "intake",
			Name:      "scrape_duration_seconds",
			Help:      "Time spent fetching and parsing a product page.",
			Buckets:   prometheus.DefBuckets,
		}),
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "submissions_total",
			Help:      "Inventory submissions by result.",
		}, []string{"result"}),
		uploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intake",
			Name:      "photo_uploads_total",
			Help:      "Inspection photo uploads by result.",
		}, []string{"result"}),
	}

	registry.MustRegister(m.scrapesTotal, m.scrapeDuration, m.submissionsTotal, m.uploadsTotal)
	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

func (m *Metrics) ObserveScrape(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.scrapesTotal.WithLabelValues(outcome).Inc()
	m.scrapeDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) IncSubmission(result string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncUpload(result string) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(result).Inc()
}
