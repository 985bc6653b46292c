package prometheus

import (
	"sync"
	"time"

	"github.com/m7modfayez/sakr-sports/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultPrefix = "storefront"

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   *prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Product metrics
	ProductOperationsCounter *prometheus.CounterVec
	ProductViewsCounter      *prometheus.CounterVec

	// Category metrics
	CategoryOperationsCounter *prometheus.CounterVec

	// Object storage metrics
	ImageRemovalsCounter *prometheus.CounterVec

	// Product cache metrics
	CacheLookupsCounter *prometheus.CounterVec

	registerOnce sync.Once
)

func init() {
	build(defaultPrefix)
}

// InitMetrics rebuilds the collectors with the configured prefix and
// registers them with the default Prometheus registry
func InitMetrics(config *config.Config) {
	registerOnce.Do(func() {
		prefix := config.Metrics.Prefix
		if prefix == "" {
			prefix = defaultPrefix
		}
		build(prefix)
		prometheus.MustRegister(collectors()...)
	})
}

func build(prefix string) {
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of dashboard sign-in attempts",
		},
	)

	AuthSuccessCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful sign-ins",
		},
	)

	AuthErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors by reason",
		},
		[]string{"reason"},
	)

	DbOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	ProductOperationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_product_operations_total",
			Help: "Total number of product operations",
		},
		[]string{"operation"},
	)

	ProductViewsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_product_views_total",
			Help: "Total number of product detail views",
		},
		[]string{"product_id"},
	)

	CategoryOperationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_category_operations_total",
			Help: "Total number of category operations",
		},
		[]string{"operation"},
	)

	ImageRemovalsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_image_removals_total",
			Help: "Stored product images removed during product deletion",
		},
		[]string{"result"},
	)

	CacheLookupsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_product_cache_lookups_total",
			Help: "Product cache lookups by result",
		},
		[]string{"result"},
	)
}

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		HttpRequestsTotal,
		HttpRequestDuration,
		AuthAttemptsCounter,
		AuthSuccessCounter,
		AuthErrorsCounter,
		DbOperationDuration,
		ProductOperationsCounter,
		ProductViewsCounter,
		CategoryOperationsCounter,
		ImageRemovalsCounter,
		CacheLookupsCounter,
	}
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordProductOperation increments the counter for product operations
func RecordProductOperation(operation string) {
	ProductOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordCategoryOperation increments the counter for category operations
func RecordCategoryOperation(operation string) {
	CategoryOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordProductView increments the counter for product views
func RecordProductView(productID string) {
	ProductViewsCounter.WithLabelValues(productID).Inc()
}

// RecordAuthError increments the authentication error counter
func RecordAuthError(reason string) {
	AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// RecordImageRemoval counts removed (or failed) stored images
func RecordImageRemoval(result string, count int) {
	ImageRemovalsCounter.WithLabelValues(result).Add(float64(count))
}

// RecordCacheLookup counts product cache hits and misses
func RecordCacheLookup(result string) {
	CacheLookupsCounter.WithLabelValues(result).Inc()
}
