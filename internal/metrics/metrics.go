// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the application collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal          *prometheus.CounterVec
	DocumentsTotal     *prometheus.CounterVec
	EmailsTotal        *prometheus.CounterVec
	LimitRejections    *prometheus.CounterVec
	RunDueDuration     prometheus.Histogram
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dividend_admin_runs_total",
			Help: "Scheduled dividend runs by terminal status.",
		}, []string{"status"}),
		DocumentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dividend_admin_documents_generated_total",
			Help: "Generated documents by kind and format.",
		}, []string{"kind", "format"}),
		EmailsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dividend_admin_emails_total",
			Help: "Email dispatch attempts by outcome.",
		}, []string{"status"}),
		LimitRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dividend_admin_usage_limit_rejections_total",
			Help: "Generations refused because the monthly plan limit was reached.",
		}, []string{"kind"}),
		RunDueDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dividend_admin_run_due_duration_seconds",
			Help:    "Duration of one due-run scan.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dividend_admin_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		HTTPRequestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dividend_admin_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RunsTotal,
		m.DocumentsTotal,
		m.EmailsTotal,
		m.LimitRejections,
		m.RunDueDuration,
		m.HTTPRequestsTotal,
		m.HTTPRequestSeconds,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument wraps next with request counting and latency observation.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerDuration(m.HTTPRequestSeconds,
		promhttp.InstrumentHandlerCounter(m.HTTPRequestsTotal, next))
}

// Registry exposes the registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
