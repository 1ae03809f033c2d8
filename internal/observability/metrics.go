// Package observability holds the Prometheus metrics for the climate service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "remoteclimate"

// Metrics holds the counters, histograms and gauges for record checks,
// window scans and storage health.
type Metrics struct {
	RecordsBroken *prometheus.CounterVec // labels: element, period
	RecordsTied   *prometheus.CounterVec // labels: element, period
	RecordChecks  prometheus.Counter

	WindowScans        *prometheus.CounterVec // labels: element, outcome={ok,error,skipped}
	WindowScanDuration prometheus.Histogram

	AggregateErrors *prometheus.CounterVec // labels: op
	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}
	DatabaseUp      prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsBroken: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_broken_total",
			Help:      "Climate records broken by new observations.",
		}, []string{"element", "period"}),
		RecordsTied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_tied_total",
			Help:      "Climate records tied by new observations.",
		}, []string{"element", "period"}),
		RecordChecks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_checks_total",
			Help:      "Daily observations checked against records.",
		}),
		WindowScans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "window_scans_total",
			Help:      "24-hour maximum scans by element and outcome.",
		}, []string{"element", "outcome"}),
		WindowScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "window_scan_duration_seconds",
			Help:      "Duration of a 24-hour maximum scan including hourly fetches.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		AggregateErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_errors_total",
			Help:      "Period aggregate queries that failed and reported missing.",
		}, []string{"op"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_events_published_total",
			Help:      "Record events handed to the publisher by outcome.",
		}, []string{"outcome"}),
		DatabaseUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "database_up",
			Help:      "1 when the last climate database health check passed.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RecordsBroken,
		m.RecordsTied,
		m.RecordChecks,
		m.WindowScans,
		m.WindowScanDuration,
		m.AggregateErrors,
		m.EventsPublished,
		m.DatabaseUp,
	}
}

// NewMetrics creates the metrics and registers them with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsWithRegistry registers the metrics with reg instead.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting returns unregistered metrics so tests can build as
// many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
