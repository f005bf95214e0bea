package prometheus

import (
	"time"

	"catalog-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Catalog operation metrics
	ProductOperationsCounter  *prometheus.CounterVec
	CategoryOperationsCounter *prometheus.CounterVec
	TagOperationsCounter      *prometheus.CounterVec
	MaterialOperationsCounter *prometheus.CounterVec

	// Filesystem mirror metrics
	MirrorOperationsCounter *prometheus.CounterVec

	// Inventory metrics
	ProductInventoryGauge *prometheus.GaugeVec

	// Reconciliation metrics
	ReconcileIssuesGauge *prometheus.GaugeVec

	// Product popularity metrics
	ProductViewsCounter *prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Database operation metrics
	DbOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Product metrics
	ProductOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_product_operations_total",
			Help: "Total number of product operations",
		},
		[]string{"operation"},
	)

	// Category metrics
	CategoryOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_category_operations_total",
			Help: "Total number of category operations",
		},
		[]string{"operation"},
	)

	// Tag metrics
	TagOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_tag_operations_total",
			Help: "Total number of tag operations",
		},
		[]string{"operation"},
	)

	// Material metrics
	MaterialOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_material_operations_total",
			Help: "Total number of material operations",
		},
		[]string{"operation"},
	)

	// Filesystem mirror metrics
	MirrorOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_mirror_operations_total",
			Help: "Total number of filesystem mirror operations",
		},
		[]string{"operation", "result"},
	)

	// Product inventory metrics
	ProductInventoryGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_product_inventory",
			Help: "Current inventory level for products",
		},
		[]string{"sku", "product_name", "category"},
	)

	// Reconciliation metrics
	ReconcileIssuesGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_reconcile_issues",
			Help: "Inconsistencies found by the last reconciliation pass",
		},
		[]string{"issue"},
	)

	// Product popularity metrics
	ProductViewsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_product_views_total",
			Help: "Total number of product views",
		},
		[]string{"sku", "category"},
	)
}

// RecordHTTPRequest records one finished HTTP request with its duration
func RecordHTTPRequest(method, path, status string, duration float64) {
	if HttpRequestsTotal == nil {
		return
	}
	HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordProductOperation increments the counter for product operations
func RecordProductOperation(operation string) {
	if ProductOperationsCounter == nil {
		return
	}
	ProductOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordCategoryOperation increments the counter for category operations
func RecordCategoryOperation(operation string) {
	if CategoryOperationsCounter == nil {
		return
	}
	CategoryOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordTagOperation increments the counter for tag operations
func RecordTagOperation(operation string) {
	if TagOperationsCounter == nil {
		return
	}
	TagOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordMaterialOperation increments the counter for material operations
func RecordMaterialOperation(operation string) {
	if MaterialOperationsCounter == nil {
		return
	}
	MaterialOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordMirrorOperation increments the counter for filesystem mirror operations
func RecordMirrorOperation(operation string, err error) {
	if MirrorOperationsCounter == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	MirrorOperationsCounter.WithLabelValues(operation, result).Inc()
}

// UpdateProductInventory updates the gauge for product inventory
func UpdateProductInventory(sku string, productName string, category string, count float64) {
	if ProductInventoryGauge == nil {
		return
	}
	ProductInventoryGauge.WithLabelValues(sku, productName, category).Set(count)
}

// RecordReconcileIssues sets the issue gauges from a reconciliation pass
func RecordReconcileIssues(counts map[string]int) {
	if ReconcileIssuesGauge == nil {
		return
	}
	for issue, count := range counts {
		ReconcileIssuesGauge.WithLabelValues(issue).Set(float64(count))
	}
}

// RecordProductView increments the counter for product views
func RecordProductView(sku string, category string) {
	if ProductViewsCounter == nil {
		return
	}
	ProductViewsCounter.WithLabelValues(sku, category).Inc()
}
