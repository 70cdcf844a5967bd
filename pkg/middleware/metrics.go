package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ripple-dev/ripple/pkg/graph"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "ripple").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass and request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "ripple",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus metrics for Ripple.
type metrics struct {
	passesTotal     prometheus.Counter
	passDuration    prometheus.Histogram
	nodeRecomputes  prometheus.Counter
	effectsRun      prometheus.Counter
	nodesSkipped    prometheus.Counter
	nodeErrors      *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	sessionsTotal   prometheus.Counter
	wsMessages      *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// globalMetrics is the singleton metrics instance.
// Created on first call to Prometheus().
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

// initMetrics initializes the Prometheus metrics.
func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		passesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes_total",
			Help:        "Total number of propagation passes run",
			ConstLabels: config.ConstLabels,
		}),

		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Propagation pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		nodeRecomputes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "node_recomputes_total",
			Help:        "Total number of derived node recomputations",
			ConstLabels: config.ConstLabels,
		}),

		effectsRun: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effects_run_total",
			Help:        "Total number of effect executions",
			ConstLabels: config.ConstLabels,
		}),

		nodesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_skipped_total",
			Help:        "Total number of nodes skipped because an upstream failed",
			ConstLabels: config.ConstLabels,
		}),

		nodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "node_errors_total",
			Help:        "Total number of compute/run failures by node key",
			ConstLabels: config.ConstLabels,
		}, []string{"node"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of live sessions",
			ConstLabels: config.ConstLabels,
		}),

		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sessions_total",
			Help:        "Total number of sessions created",
			ConstLabels: config.ConstLabels,
		}),

		wsMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_messages_total",
			Help:        "Total WebSocket messages by direction",
			ConstLabels: config.ConstLabels,
		}, []string{"direction"}),

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_requests_total",
			Help:        "Total HTTP requests by path and status code",
			ConstLabels: config.ConstLabels,
		}, []string{"path", "code"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"path"}),
	}
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Prometheus creates HTTP middleware that collects Prometheus metrics.
//
// Metrics collected:
//   - ripple_passes_total: Counter of propagation passes
//   - ripple_pass_duration_seconds: Histogram of pass duration
//   - ripple_node_recomputes_total: Counter of derived recomputations
//   - ripple_effects_run_total: Counter of effect executions
//   - ripple_nodes_skipped_total: Counter of failure-skipped nodes
//   - ripple_node_errors_total: Counter of node failures by key
//   - ripple_active_sessions, ripple_sessions_total: session tracking
//   - ripple_websocket_messages_total: Counter of WS messages by direction
//   - ripple_http_requests_total, ripple_http_request_duration_seconds
//
// Example:
//
//	r.Use(middleware.Prometheus(middleware.WithNamespace("myapp")))
//	r.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) func(http.Handler) http.Handler {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Initialize metrics once
	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

			next.ServeHTTP(rec, r)

			path := r.URL.Path
			if path == "" {
				path = "/"
			}
			m.requestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
			m.requestsTotal.WithLabelValues(path, strconv.Itoa(rec.code)).Inc()
		})
	}
}

// GetMetrics returns the metrics collector, or nil if Prometheus() has
// not been called yet.
func GetMetrics() *metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	return globalMetrics
}

// RecordPass records the outcome of one propagation pass.
// Call this from server code after each Flush.
func RecordPass(result *graph.PassResult, duration time.Duration) {
	if globalMetrics == nil || result == nil {
		return
	}
	globalMetrics.passesTotal.Inc()
	globalMetrics.passDuration.Observe(duration.Seconds())
	globalMetrics.nodeRecomputes.Add(float64(len(result.Recomputed)))
	globalMetrics.effectsRun.Add(float64(len(result.EffectsRun)))
	globalMetrics.nodesSkipped.Add(float64(len(result.Skipped)))
	for _, ne := range result.Errors {
		globalMetrics.nodeErrors.WithLabelValues(ne.Key).Inc()
	}
}

// RecordSessionCreate records a new session creation.
func RecordSessionCreate() {
	if globalMetrics != nil {
		globalMetrics.activeSessions.Inc()
		globalMetrics.sessionsTotal.Inc()
	}
}

// RecordSessionDestroy records a session destruction.
func RecordSessionDestroy() {
	if globalMetrics != nil {
		globalMetrics.activeSessions.Dec()
	}
}

// RecordWSMessage records a WebSocket message. Direction is "in" or "out".
func RecordWSMessage(direction string) {
	if globalMetrics != nil {
		globalMetrics.wsMessages.WithLabelValues(direction).Inc()
	}
}
