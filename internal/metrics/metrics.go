// Package metrics registers the Prometheus instruments shared by the worker
// tasks and the HTTP layer. All methods are nil-receiver safe so a missing
// metrics sink never changes task outcomes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the instrument set on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	fetchSuccess  *prometheus.CounterVec
	fetchFailure  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec

	alertsTotal   *prometheus.CounterVec
	alertDuration *prometheus.HistogramVec

	jobRuns     *prometheus.CounterVec
	jobFailures *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpErrors   *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New builds the instrument set on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fetch_price_success_total",
			Help: "Successful price fetches",
		}, []string{"symbol"}),
		fetchFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fetch_price_failure_total",
			Help: "Failed price fetches",
		}, []string{"symbol"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "fetch_price_duration_seconds",
			Help: "Duration of price fetches",
		}, []string{"symbol"}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alerts_total",
			Help: "Total generated alerts",
		}, []string{"symbol"}),
		alertDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "alert_compute_seconds",
			Help: "Time spent computing alerts",
		}, []string{"symbol"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_runs_total",
			Help: "Scheduled job executions",
		}, []string{"job"}),
		jobFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_failures_total",
			Help: "Scheduled job executions that returned an error or panicked",
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "job_duration_seconds",
			Help: "Duration of scheduled job executions",
		}, []string{"job"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "path"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "HTTP responses with status >= 400",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "api_request_duration_seconds",
			Help: "Request duration seconds",
		}, []string{"path"}),
	}

	m.registry.MustRegister(
		m.fetchSuccess, m.fetchFailure, m.fetchDuration,
		m.alertsTotal, m.alertDuration,
		m.jobRuns, m.jobFailures, m.jobDuration,
		m.httpRequests, m.httpErrors, m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// FetchSucceeded increments the per-symbol success counter.
func (m *Metrics) FetchSucceeded(symbol string) {
	if m != nil {
		m.fetchSuccess.WithLabelValues(symbol).Inc()
	}
}

// FetchFailed increments the per-symbol failure counter.
func (m *Metrics) FetchFailed(symbol string) {
	if m != nil {
		m.fetchFailure.WithLabelValues(symbol).Inc()
	}
}

// ObserveFetch records the duration of one fetch attempt chain.
func (m *Metrics) ObserveFetch(symbol string, d time.Duration) {
	if m != nil {
		m.fetchDuration.WithLabelValues(symbol).Observe(d.Seconds())
	}
}

// AlertEmitted increments the per-symbol alert counter.
func (m *Metrics) AlertEmitted(symbol string) {
	if m != nil {
		m.alertsTotal.WithLabelValues(symbol).Inc()
	}
}

// ObserveAlertCompute records time spent in one alert evaluation.
func (m *Metrics) ObserveAlertCompute(symbol string, d time.Duration) {
	if m != nil {
		m.alertDuration.WithLabelValues(symbol).Observe(d.Seconds())
	}
}

// JobRan records one job execution and its outcome.
func (m *Metrics) JobRan(job string, d time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
	if failed {
		m.jobFailures.WithLabelValues(job).Inc()
	}
}

// RequestServed records one HTTP request by route template.
func (m *Metrics) RequestServed(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path).Inc()
	m.httpDuration.WithLabelValues(path).Observe(d.Seconds())
	if status >= 400 {
		m.httpErrors.WithLabelValues(method, path, statusLabel(status)).Inc()
	}
}

func statusLabel(status int) string {
	// Small fixed set keeps label cardinality down.
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "ok"
	}
}
