// Package telemetry exposes Prometheus metrics for dataset generation, table
// loading, report serving and the HTTP layer.
package telemetry

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes recorded on the generation run counter.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

var defaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// Metrics bundles every collector the application records to.
type Metrics struct {
	registry *prometheus.Registry

	rowsGenerated  *prometheus.CounterVec
	generationRuns *prometheus.CounterVec
	batchDuration  *prometheus.HistogramVec
	loadDuration   *prometheus.HistogramVec
	skippedRows    *prometheus.CounterVec
	reportRequests *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	activeRequests prometheus.Gauge
}

// NewMetrics registers the collectors on a fresh registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		rowsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidaplena_rows_generated_total",
			Help: "Rows written to dataset files.",
		}, []string{"dataset"}),
		generationRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidaplena_generation_runs_total",
			Help: "Dataset generation runs by outcome.",
		}, []string{"dataset", "status"}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vidaplena_batch_duration_seconds",
			Help:    "Time to generate and flush one batch.",
			Buckets: defaultDurationBuckets,
		}, []string{"dataset"}),
		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vidaplena_dataset_load_duration_seconds",
			Help:    "Time to load a dataset file into memory.",
			Buckets: defaultDurationBuckets,
		}, []string{"dataset"}),
		skippedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidaplena_loader_skipped_rows_total",
			Help: "Malformed rows skipped while loading.",
		}, []string{"dataset"}),
		reportRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidaplena_report_requests_total",
			Help: "Reports computed by id.",
		}, []string{"report"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: defaultDurationBuckets,
		}, []string{"method", "route", "status"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "In-flight HTTP requests.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rowsGenerated, m.generationRuns, m.batchDuration, m.loadDuration,
		m.skippedRows, m.reportRequests, m.httpDuration, m.activeRequests,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RecordBatch records one flushed batch.
func (m *Metrics) RecordBatch(dataset string, rows int, elapsed time.Duration) {
	m.rowsGenerated.WithLabelValues(dataset).Add(float64(rows))
	m.batchDuration.WithLabelValues(dataset).Observe(elapsed.Seconds())
}

// RecordRun records the outcome of a generation run.
func (m *Metrics) RecordRun(dataset string, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	m.generationRuns.WithLabelValues(dataset, status).Inc()
}

// RecordLoad records a dataset load.
func (m *Metrics) RecordLoad(dataset string, skipped int, elapsed time.Duration) {
	m.loadDuration.WithLabelValues(dataset).Observe(elapsed.Seconds())
	if skipped > 0 {
		m.skippedRows.WithLabelValues(dataset).Add(float64(skipped))
	}
}

// RecordReport counts one computed report.
func (m *Metrics) RecordReport(report string) {
	m.reportRequests.WithLabelValues(report).Inc()
}

// MetricsMiddleware returns an Echo middleware that records HTTP server metrics.
func (m *Metrics) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.activeRequests.Inc()
			defer m.activeRequests.Dec()

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}
			status := strconv.Itoa(c.Response().Status)
			m.httpDuration.WithLabelValues(c.Request().Method, route, status).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// PrometheusHandler serves the registry in the text exposition format.
func (m *Metrics) PrometheusHandler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
