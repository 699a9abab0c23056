// Package metrics exposes Prometheus instrumentation for the parsing
// service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry so tests can
// create independent instances.
type Metrics struct {
	registry *prometheus.Registry

	ParsesTotal    *prometheus.CounterVec
	ParseDuration  prometheus.Histogram
	SegmentsParsed prometheus.Histogram
	GrammarReloads prometheus.Counter
}

// New creates and registers the service collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ParsesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semframe",
			Name:      "parses_total",
			Help:      "Transmissions parsed, by outcome.",
		}, []string{"outcome"}),
		ParseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "semframe",
			Name:      "parse_duration_seconds",
			Help:      "Wall time of one parse.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		SegmentsParsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "semframe",
			Name:      "parse_segments",
			Help:      "Top-level constituents per transmission.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		GrammarReloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "semframe",
			Name:      "grammar_reloads_total",
			Help:      "Grammar reloads since start.",
		}),
	}
	m.registry.MustRegister(
		m.ParsesTotal,
		m.ParseDuration,
		m.SegmentsParsed,
		m.GrammarReloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
