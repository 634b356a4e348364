// Package metrics exposes pipeline counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/JonMunkholm/datasweeper/internal/codec"
	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "datasweeper"

// Metrics implements core.Recorder on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	filesIngested  *prometheus.CounterVec
	cleanOps       *prometheus.CounterVec
	exports        *prometheus.CounterVec
	exportBytes    *prometheus.HistogramVec
	activeSessions prometheus.Gauge
}

var _ core.Recorder = (*Metrics)(nil)

// New registers the pipeline collectors plus the Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		filesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_ingested_total",
			Help:      "Uploaded files by format and outcome.",
		}, []string{"format", "outcome"}),
		cleanOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clean_operations_total",
			Help:      "Cleaning operations applied.",
		}, []string{"operation"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Artifacts exported by format.",
		}, []string{"format"}),
		exportBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_bytes",
			Help:      "Size of exported artifacts.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}, []string{"format"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions currently held in memory.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.filesIngested,
		m.cleanOps,
		m.exports,
		m.exportBytes,
		m.activeSessions,
	)
	return m
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) FileIngested(format codec.Format, outcome string) {
	m.filesIngested.WithLabelValues(formatLabel(format), outcome).Inc()
}

func (m *Metrics) CleanApplied(op core.CleanOp) {
	m.cleanOps.WithLabelValues(string(op)).Inc()
}

func (m *Metrics) Exported(format codec.Format, bytes int) {
	m.exports.WithLabelValues(formatLabel(format)).Inc()
	m.exportBytes.WithLabelValues(formatLabel(format)).Observe(float64(bytes))
}

func (m *Metrics) SessionsActive(n int) {
	m.activeSessions.Set(float64(n))
}

func formatLabel(f codec.Format) string {
	if !f.Valid() {
		return "unknown"
	}
	return string(f)
}
