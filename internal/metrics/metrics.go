// Package metrics provides Prometheus metrics collection for the packing service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks HTTP request duration by method, path, and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)

	// HTTPRequestTotal tracks total HTTP requests by method, path, and status code.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	// PackingDecisionsTotal counts decisions by the source that produced them.
	PackingDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "packing_decisions_total",
			Help: "Total number of packing decisions",
		},
		[]string{"source", "status"},
	)

	// PackingDecisionDuration tracks end-to-end decision latency.
	PackingDecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "packing_decision_duration_seconds",
			Help:    "Packing decision duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		},
		[]string{"source"},
	)

	// PackerRequestsTotal counts packer API calls by outcome.
	PackerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "packer_api_requests_total",
			Help: "Total number of packer API requests",
		},
		[]string{"outcome"},
	)

	// PackerRequestDuration tracks packer API latency, retries included.
	PackerRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "packer_api_request_duration_seconds",
			Help:    "Packer API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
	)

	// PackerRetriesTotal counts transport-level retries of packer API calls.
	PackerRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "packer_api_retries_total",
			Help: "Total number of packer API request retries",
		},
	)

	// CacheOperationsTotal tracks decision cache operations.
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "result"},
	)

	// CacheSize tracks current in-memory cache size.
	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_size",
			Help: "Current cache size",
		},
	)

	// CacheCapacity tracks in-memory cache capacity.
	CacheCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_capacity",
			Help: "Cache capacity",
		},
	)

	// CircuitBreakerState reports 0 (closed), 1 (open) or 2 (half-open) per breaker.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"name"},
	)

	// DecisionLogDropped counts decision records dropped because the buffer was full.
	DecisionLogDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "decision_log_dropped_total",
			Help: "Total number of decision records dropped",
		},
	)
)

// UnmatchedRoute labels requests that hit no registered route. Raw paths
// would give scanners unbounded label cardinality.
const UnmatchedRoute = "unmatched"

// PrometheusMiddleware returns a Gin middleware that counts and times
// requests by method, route template and status.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = UnmatchedRoute
		}
		labels := []string{c.Request.Method, route, strconv.Itoa(c.Writer.Status())}
		HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		HTTPRequestTotal.WithLabelValues(labels...).Inc()
	}
}

// RecordPackingDecision records metrics for a finished decision.
func RecordPackingDecision(source, status string, duration time.Duration) {
	PackingDecisionDuration.WithLabelValues(source).Observe(duration.Seconds())
	PackingDecisionsTotal.WithLabelValues(source, status).Inc()
}

// RecordPackerRequest records metrics for a packer API call.
func RecordPackerRequest(outcome string, duration time.Duration) {
	PackerRequestDuration.Observe(duration.Seconds())
	PackerRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordPackerRetry records a transport-level retry.
func RecordPackerRetry() {
	PackerRetriesTotal.Inc()
}

// RecordCacheOperation records metrics for a cache operation.
func RecordCacheOperation(operation, result string) {
	CacheOperationsTotal.WithLabelValues(operation, result).Inc()
}

// UpdateCacheMetrics updates cache size and capacity metrics.
func UpdateCacheMetrics(size, capacity int) {
	CacheSize.Set(float64(size))
	CacheCapacity.Set(float64(capacity))
}

// SetCircuitBreakerState publishes the state of a named circuit breaker.
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordDecisionLogDropped records a dropped decision record.
func RecordDecisionLogDropped() {
	DecisionLogDropped.Inc()
}
