// Package metrics defines the Prometheus collectors of the server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Completion outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	completionsTotal  *prometheus.CounterVec
	inferenceDuration *prometheus.HistogramVec
	saveFailures      prometheus.Counter
}

// New registers the collectors on a fresh registry that also carries the Go
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		gatherer: g,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "codefixer",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "codefixer",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"method", "route"},
		),
		completionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "codefixer",
				Name:      "completions_total",
				Help:      "Fix and suggest submissions by outcome",
			},
			[]string{"kind", "outcome"},
		),
		inferenceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "codefixer",
				Name:      "inference_duration_seconds",
				Help:      "Latency of inference provider calls in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
			},
			[]string{"kind"},
		),
		saveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "codefixer",
			Name:      "history_save_failures_total",
			Help:      "Completions shown to the user but not persisted",
		}),
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration, m.completionsTotal, m.inferenceDuration, m.saveFailures)
	return m
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// CompletionOutcome counts one submission.
func (m *Metrics) CompletionOutcome(kind, outcome string) {
	if m == nil {
		return
	}
	m.completionsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveInference records the latency of one provider call.
func (m *Metrics) ObserveInference(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.inferenceDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// SaveFailed counts a completion that could not be persisted.
func (m *Metrics) SaveFailed() {
	if m == nil {
		return
	}
	m.saveFailures.Inc()
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
