package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the build service
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestSize      *prometheus.HistogramVec
	httpResponseSize     *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Database metrics
	dbQueriesTotal    *prometheus.CounterVec
	dbQueryDuration   *prometheus.HistogramVec
	dbConnections     prometheus.Gauge
	dbConnectionsIdle prometheus.Gauge
	dbConnectionsMax  prometheus.Gauge

	// Build pipeline metrics
	buildsTotal        *prometheus.CounterVec
	buildDuration      prometheus.Histogram
	buildBundleBytes   prometheus.Histogram
	buildCSSBytes      prometheus.Histogram
	buildArchiveBytes  prometheus.Histogram
	buildModulesTotal  prometheus.Histogram
	buildsInFlight     prometheus.Gauge

	// Storage metrics
	storageBytesTotal        *prometheus.CounterVec
	storageOperationsTotal   *prometheus.CounterVec
	storageOperationDuration *prometheus.HistogramVec

	// System metrics
	systemUptime prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		// HTTP metrics
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staticmagic_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "staticmagic_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		httpRequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "staticmagic_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),
		httpResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "staticmagic_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "staticmagic_http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),

		// Database metrics
		dbQueriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staticmagic_db_queries_total",
				Help: "Total number of database queries",
			},
			[]string{"operation"},
		),
		dbQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "staticmagic_db_query_duration_seconds",
				Help:    "Database query latency in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"operation"},
		),
		dbConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "staticmagic_db_connections",
				Help: "Current number of database connections",
			},
		),
		dbConnectionsIdle: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "staticmagic_db_connections_idle",
				Help: "Current number of idle database connections",
			},
		),
		dbConnectionsMax: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "staticmagic_db_connections_max",
				Help: "Maximum number of database connections",
			},
		),

		// Build pipeline metrics
		buildsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staticmagic_builds_total",
				Help: "Total number of build jobs processed",
			},
			[]string{"status"},
		),
		buildDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "staticmagic_build_duration_seconds",
				Help:    "Build pipeline duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		buildBundleBytes: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "staticmagic_build_bundle_bytes",
				Help:    "Size of generated JavaScript bundles in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
			},
		),
		buildCSSBytes: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "staticmagic_build_css_bytes",
				Help:    "Size of generated stylesheets in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
			},
		),
		buildArchiveBytes: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "staticmagic_build_archive_bytes",
				Help:    "Size of output archives in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
			},
		),
		buildModulesTotal: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "staticmagic_build_modules",
				Help:    "Number of modules bundled per build",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
		),
		buildsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "staticmagic_builds_in_flight",
				Help: "Current number of builds being processed",
			},
		),

		// Storage metrics
		storageBytesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staticmagic_storage_bytes_total",
				Help: "Total number of bytes stored/retrieved",
			},
			[]string{"operation", "bucket"},
		),
		storageOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staticmagic_storage_operations_total",
				Help: "Total number of storage operations",
			},
			[]string{"operation", "bucket", "status"},
		),
		storageOperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "staticmagic_storage_operation_duration_seconds",
				Help:    "Storage operation latency in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation", "bucket"},
		),

		// System metrics
		systemUptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "staticmagic_system_uptime_seconds",
				Help: "System uptime in seconds",
			},
		),
	}

	return m
}

// MetricsMiddleware returns a Fiber middleware that collects HTTP metrics
func (m *Metrics) MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		m.httpRequestsInFlight.Inc()
		defer m.httpRequestsInFlight.Dec()

		// Get request size
		requestSize := len(c.Body())
		path := normalizePath(c.Path())
		method := c.Method()

		// Process request
		err := c.Next()

		// Calculate duration
		duration := time.Since(start).Seconds()
		status := statusClass(c.Response().StatusCode())
		responseSize := len(c.Response().Body())

		// Record metrics
		m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		m.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
		m.httpResponseSize.WithLabelValues(method, path, status).Observe(float64(responseSize))

		return err
	}
}

// RecordDBQuery records database query metrics
func (m *Metrics) RecordDBQuery(operation string, duration time.Duration, err error) {
	m.dbQueriesTotal.WithLabelValues(operation).Inc()
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBStats updates database connection pool stats
func (m *Metrics) UpdateDBStats(total, idle, max int32) {
	m.dbConnections.Set(float64(total))
	m.dbConnectionsIdle.Set(float64(idle))
	m.dbConnectionsMax.Set(float64(max))
}

// BuildStarted marks a build as in flight
func (m *Metrics) BuildStarted() {
	m.buildsInFlight.Inc()
}

// RecordBuild records the outcome of a processed build job
func (m *Metrics) RecordBuild(status string, duration time.Duration) {
	m.buildsInFlight.Dec()
	m.buildsTotal.WithLabelValues(status).Inc()
	m.buildDuration.Observe(duration.Seconds())
}

// RecordBuildArtifacts records artifact sizes for a successful build
func (m *Metrics) RecordBuildArtifacts(bundleBytes, cssBytes, archiveBytes, modules int) {
	m.buildBundleBytes.Observe(float64(bundleBytes))
	m.buildCSSBytes.Observe(float64(cssBytes))
	m.buildArchiveBytes.Observe(float64(archiveBytes))
	m.buildModulesTotal.Observe(float64(modules))
}

// RecordStorageOperation records a storage operation
func (m *Metrics) RecordStorageOperation(operation, bucket string, bytes int64, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.storageOperationsTotal.WithLabelValues(operation, bucket, status).Inc()
	m.storageBytesTotal.WithLabelValues(operation, bucket).Add(float64(bytes))
	m.storageOperationDuration.WithLabelValues(operation, bucket).Observe(duration.Seconds())
}

// UpdateUptime updates the system uptime metric
func (m *Metrics) UpdateUptime(startTime time.Time) {
	m.systemUptime.Set(time.Since(startTime).Seconds())
}

// Handler returns a Fiber handler that exposes Prometheus metrics
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// normalizePath normalizes API paths for metrics (replaces IDs with placeholders)
func normalizePath(path string) string {
	// Group per-job paths to prevent cardinality explosion
	if len(path) > 50 {
		return "long_path"
	}
	return path
}

// statusClass returns the HTTP status class (2xx, 3xx, 4xx, 5xx)
func statusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
