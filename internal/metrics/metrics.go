package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "employee_directory"

// Metrics holds the collectors exposed on the metrics endpoint: HTTP traffic
// by route, repository query latency and export volume.
//
// All Observe methods are safe on a nil *Metrics so callers that run without
// a registry (tests, the seeder) need no guards.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	DBQueryDuration *prometheus.HistogramVec
	Exports         *prometheus.CounterVec
	ExportRows      *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Duration of database queries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query_type"}), // query_type: 'count', 'list', 'get', 'create', ...
		Exports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Total export requests by format and outcome.",
		}, []string{"format", "status"}),
		ExportRows: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_rows",
			Help:      "Number of employees written per export.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"format"}),
	}

	for _, format := range []string{"pdf", "xlsx"} {
		m.Exports.WithLabelValues(format, "success")
		m.Exports.WithLabelValues(format, "failure")
	}

	return m
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveDBQuery records the time since start. Use it with defer:
//
//	defer m.ObserveDBQuery("list", time.Now())
func (m *Metrics) ObserveDBQuery(queryType string, start time.Time) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(queryType).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveExport(format string, rows int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.Exports.WithLabelValues(format, "failure").Inc()
		return
	}
	m.Exports.WithLabelValues(format, "success").Inc()
	m.ExportRows.WithLabelValues(format).Observe(float64(rows))
}
