// Package metrics exposes Prometheus instrumentation for assessment
// activity and the HTTP surface that serves it.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "avouch"

// Metrics holds all collectors for a single server instance. Collectors
// are registered against a private registry so tests and embedders never
// collide with the global default registry.
type Metrics struct {
	registry *prometheus.Registry

	// Assessments completed, by statement origin and resulting level.
	assessments *prometheus.CounterVec

	// Statements rejected because they could not be decoded.
	decodeFailures prometheus.Counter

	// Time spent deriving context and classifying one statement.
	evalDuration prometheus.Histogram

	// Number of compiled level rules currently loaded.
	rules prometheus.Gauge

	// HTTP requests by method, route and status code.
	httpRequests *prometheus.CounterVec

	// HTTP request latency by route.
	httpDuration *prometheus.HistogramVec
}

// New creates a Metrics instance backed by a fresh private registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates a Metrics instance and registers its collectors
// with the given registry. A nil registry gets replaced with a new one.
func NewWithRegistry(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,

		assessments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assessments_total",
				Help:      "Total number of completed assessments by origin and level",
			},
			[]string{"origin", "level"},
		),

		decodeFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decode_failures_total",
				Help:      "Total number of statements rejected as undecodable",
			},
		),

		evalDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Time spent scoring and classifying a single statement",
				Buckets:   []float64{0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
			},
		),

		rules: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rules",
				Help:      "Number of compiled level rules currently loaded",
			},
		),

		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),

		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"route"},
		),
	}

	registry.MustRegister(
		m.assessments,
		m.decodeFailures,
		m.evalDuration,
		m.rules,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// RecordAssessment counts one completed assessment.
func (m *Metrics) RecordAssessment(origin, level string) {
	m.assessments.WithLabelValues(origin, level).Inc()
}

// RecordDecodeFailure counts one statement that could not be decoded.
func (m *Metrics) RecordDecodeFailure() {
	m.decodeFailures.Inc()
}

// ObserveEvaluation records the time taken to assess one statement.
func (m *Metrics) ObserveEvaluation(d time.Duration) {
	m.evalDuration.Observe(d.Seconds())
}

// SetRuleCount updates the gauge tracking loaded level rules. Call it
// after every engine swap.
func (m *Metrics) SetRuleCount(n int) {
	m.rules.Set(float64(n))
}

// Registry returns the Prometheus registry backing this instance.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler serving the Prometheus exposition
// format for all registered collectors.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument wraps an HTTP handler so every request is counted and
// timed. The route label is the caller-supplied pattern, not the raw
// request path, which keeps label cardinality bounded.
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// statusWriter captures the status code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer, so
// wrapped handlers can still flush and hijack.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
