// Package metrics exposes Prometheus instrumentation for the almanac service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "alchemelody"

// Metrics holds the collectors on a private registry. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry       *prometheus.Registry
	sourceRequests *prometheus.CounterVec
	sourceLatency  *prometheus.HistogramVec
	tables         *prometheus.CounterVec
	announcements  *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		sourceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Astronomical day requests by source and outcome.",
		}, []string{"source", "outcome"}),
		sourceLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Latency of astronomical day requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		tables: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hour_tables_total",
			Help:      "Planetary hour tables computed.",
		}, []string{"synthetic"}),
		announcements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hour_announcements_total",
			Help:      "Planetary hour changes announced by the alarm.",
		}, []string{"planet"}),
	}
	reg.MustRegister(
		m.sourceRequests,
		m.sourceLatency,
		m.tables,
		m.announcements,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveSource records one source request.
func (m *Metrics) ObserveSource(source, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.sourceRequests.WithLabelValues(source, outcome).Inc()
	m.sourceLatency.WithLabelValues(source).Observe(took.Seconds())
}

// TableComputed counts a computed hour table.
func (m *Metrics) TableComputed(synthetic bool) {
	if m == nil {
		return
	}
	m.tables.WithLabelValues(strconv.FormatBool(synthetic)).Inc()
}

// Announced counts an hour change announcement.
func (m *Metrics) Announced(planet string) {
	if m == nil {
		return
	}
	m.announcements.WithLabelValues(planet).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
