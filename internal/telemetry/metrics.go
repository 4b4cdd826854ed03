package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the server's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	AnalysesTotal    *prometheus.CounterVec
	ResidentDatasets prometheus.Gauge
	UploadBytes      prometheus.Counter
}

// NewMetrics constructs and registers the collectors on a private registry,
// so tests can build multiple instances without duplicate registration.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storelens",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storelens",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storelens",
			Name:      "analyses_total",
			Help:      "Analysis runs by type and outcome.",
		}, []string{"analysis", "outcome"}),
		ResidentDatasets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storelens",
			Name:      "resident_datasets",
			Help:      "Datasets currently held in memory.",
		}),
		UploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storelens",
			Name:      "upload_bytes_total",
			Help:      "Total bytes accepted across uploads.",
		}),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.AnalysesTotal, m.ResidentDatasets, m.UploadBytes)
	return m
}

// Handler exposes the /metrics endpoint for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAnalysis records one analysis run.
func (m *Metrics) ObserveAnalysis(analysis string, failed bool) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.AnalysesTotal.WithLabelValues(analysis, outcome).Inc()
}

// statusRecorder captures the response code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument wraps a handler with request counting and latency observation
// under the given route label.
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		m.RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
