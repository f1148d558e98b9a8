package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const divisor = 100

// Metrics defines all Prometheus metrics for the climate API.
type Metrics struct {
	registry *prometheus.Registry

	// RED (Rate, Errors, Duration) for HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestsInFlight prometheus.Gauge
	HTTPRequestDuration  *prometheus.HistogramVec

	// Data store
	StoreQueriesTotal  *prometheus.CounterVec // by operation, result
	StoreQueryDuration *prometheus.HistogramVec

	// Business metrics
	InvalidDatesTotal *prometheus.CounterVec // by path parameter

	ServiceUptime prometheus.Gauge

	TechnicalErrors *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics under the given namespace.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests total",
			},
			[]string{"method", "endpoint", "status_class"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "In-flight HTTP requests",
			},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		StoreQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_queries_total",
				Help:      "Queries executed against the climate store",
			},
			[]string{"operation", "result"},
		),
		StoreQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_query_duration_seconds",
				Help:      "Duration of climate store queries",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		InvalidDatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invalid_dates_total",
				Help:      "Requests rejected because a date path segment did not parse",
			},
			[]string{"parameter"},
		),

		ServiceUptime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "service_start_time_seconds",
				Help:      "Unix time the service started",
			},
		),

		TechnicalErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "technical_errors_total",
				Help:      "Total technical errors",
			},
			[]string{"error_type", "severity"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestsInFlight,
		m.HTTPRequestDuration,
		m.StoreQueriesTotal,
		m.StoreQueryDuration,
		m.InvalidDatesTotal,
		m.ServiceUptime,
		m.TechnicalErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m.ServiceUptime.SetToCurrentTime()

	return m
}

// Registry exposes the private registry, e.g. to add a DB stats collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics of this instance in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// HTTPMiddleware instruments Gin HTTP handlers for RED metrics.
func (m *Metrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		c.Next()
		m.HTTPRequestsInFlight.Dec()

		dur := time.Since(start).Seconds()
		status := c.Writer.Status()
		statusClass := fmt.Sprintf("%dxx", status/divisor)

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, endpoint, statusClass).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(dur)
	}
}

// ObserveQuery records the outcome and latency of one store operation.
func (m *Metrics) ObserveQuery(operation string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		m.TechnicalErrors.WithLabelValues("store_"+operation, "critical").Inc()
	}
	m.StoreQueriesTotal.WithLabelValues(operation, result).Inc()
	m.StoreQueryDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordInvalidDate counts a rejected start or end path segment.
func (m *Metrics) RecordInvalidDate(parameter string) {
	m.InvalidDatesTotal.WithLabelValues(parameter).Inc()
}
