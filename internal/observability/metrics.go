package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides a centralized interface for collecting application
// metrics. Grounded on the teacher's internal/observability.Metrics
// shape and registration style (promauto against the default
// registry), re-pointed from the teacher's chat-channel/LLM-cost
// domain to Skreaver's C9 (HTTP), C10 (WebSocket), C11 (agent mesh),
// C2 (memory backend), and toolregistry dispatch metrics. Label sets
// are kept to a bounded, low-cardinality vocabulary (tool/route names,
// not raw IDs) per SPEC_FULL.md's C12 surface.
type Metrics struct {
	// HTTPRequestDuration measures HTTP API request latency.
	// Labels: method, route, status_code
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestCounter counts HTTP requests.
	// Labels: method, route, status_code
	HTTPRequestCounter *prometheus.CounterVec

	// AuthDecisions counts authentication outcomes.
	// Labels: method (jwt|api_key), result (allow|deny)
	AuthDecisions *prometheus.CounterVec

	// RateLimitDecisions counts admission decisions made by
	// internal/ratelimit.MultiLimiter.
	// Labels: dimension (global|per_ip|per_user), result (allow|deny)
	RateLimitDecisions *prometheus.CounterVec

	// BackpressureRejections counts requests rejected by backpressure
	// admission control ahead of the coordinator/mesh queues.
	// Labels: signal (warning|critical)
	BackpressureRejections *prometheus.CounterVec

	// WSConnectionsActive is a gauge of live WebSocket connections.
	WSConnectionsActive prometheus.Gauge

	// WSConnectionDuration measures connection lifetime in seconds.
	WSConnectionDuration prometheus.Histogram

	// WSMessagesTotal counts WebSocket frames by direction.
	// Labels: direction (inbound|outbound)
	WSMessagesTotal *prometheus.CounterVec

	// WSSubscriptionQuotaRejections counts subscribe attempts rejected
	// for exceeding a connection's subscription quota.
	WSSubscriptionQuotaRejections prometheus.Counter

	// ToolExecutionCounter counts tool invocations dispatched through
	// internal/toolregistry.
	// Labels: tool_name, status (success|error)
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution time in seconds.
	// Labels: tool_name
	ToolExecutionDuration *prometheus.HistogramVec

	// ErrorCounter tracks errors by component and error type.
	// Labels: component, error_type
	ErrorCounter *prometheus.CounterVec

	// MeshTasksTotal counts mesh task outcomes.
	// Labels: status (queued|assigned|completed|failed)
	MeshTasksTotal *prometheus.CounterVec

	// MeshDLQDepth is a gauge of the current dead-letter queue size.
	MeshDLQDepth prometheus.Gauge

	// MeshBackpressureSignal is a gauge of the current backpressure
	// signal (0=normal, 1=warning, 2=critical).
	MeshBackpressureSignal prometheus.Gauge

	// MemoryOperationDuration measures memory-backend read/write latency.
	// Labels: backend (memory|sqlite|postgres|redis), operation
	MemoryOperationDuration *prometheus.HistogramVec

	// MemoryOperationCounter counts memory-backend operations.
	// Labels: backend, operation, status
	MemoryOperationCounter *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
// This should be called once at application startup. All metrics are
// registered with Prometheus's default registry and exposed at
// /metrics via promhttp.Handler() (see internal/httpapi).
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "skreaver_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"method", "route", "status_code"},
		),

		HTTPRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skreaver_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),

		AuthDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skreaver_auth_decisions_total",
				Help: "Total number of authentication decisions by method and result",
			},
			[]string{"method", "result"},
		),

		RateLimitDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skreaver_rate_limit_decisions_total",
				Help: "Total number of rate limit admission decisions by dimension and result",
			},
			[]string{"dimension", "result"},
		),

		BackpressureRejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skreaver_backpressure_rejections_total",
				Help: "Total number of requests rejected by backpressure admission control",
			},
			[]string{"signal"},
		),

		WSConnectionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "skreaver_ws_connections_active",
				Help: "Current number of active WebSocket connections",
			},
		),

		WSConnectionDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "skreaver_ws_connection_duration_seconds",
				Help:    "Duration of WebSocket connections in seconds",
				Buckets: []float64{1, 5, 30, 60, 300, 1800, 3600, 14400},
			},
		),

		WSMessagesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skreaver_ws_messages_total",
				Help: "Total number of WebSocket frames by direction",
			},
			[]string{"direction"},
		),

		WSSubscriptionQuotaRejections: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "skreaver_ws_subscription_quota_rejections_total",
				Help: "Total number of subscribe attempts rejected for exceeding quota",
			},
		),

		ToolExecutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skreaver_tool_executions_total",
				Help: "Total number of tool executions by tool name and status",
			},
			[]string{"tool_name", "status"},
		),

		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "skreaver_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"tool_name"},
		),

		ErrorCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skreaver_errors_total",
				Help: "Total number of errors by component and error type",
			},
			[]string{"component", "error_type"},
		),

		MeshTasksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skreaver_mesh_tasks_total",
				Help: "Total number of agent mesh tasks by terminal status",
			},
			[]string{"status"},
		),

		MeshDLQDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "skreaver_mesh_dlq_depth",
				Help: "Current number of entries held in the dead letter queue",
			},
		),

		MeshBackpressureSignal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "skreaver_mesh_backpressure_signal",
				Help: "Current backpressure signal (0=normal, 1=warning, 2=critical)",
			},
		),

		MemoryOperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "skreaver_memory_operation_duration_seconds",
				Help:    "Duration of memory backend operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"backend", "operation"},
		),

		MemoryOperationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skreaver_memory_operations_total",
				Help: "Total number of memory backend operations",
			},
			[]string{"backend", "operation", "status"},
		),
	}
}

// RecordHTTPRequest records metrics for a completed HTTP request.
// route should be the matched route pattern (e.g. "/v1/jobs/{id}"),
// never the raw path, to keep label cardinality bounded.
func (m *Metrics) RecordHTTPRequest(method, route, statusCode string, durationSeconds float64) {
	m.HTTPRequestCounter.WithLabelValues(method, route, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route, statusCode).Observe(durationSeconds)
}

// RecordAuthDecision records an authentication outcome.
func (m *Metrics) RecordAuthDecision(method string, allowed bool) {
	result := "deny"
	if allowed {
		result = "allow"
	}
	m.AuthDecisions.WithLabelValues(method, result).Inc()
}

// RecordRateLimitDecision records an admission decision for one rate
// limit dimension.
func (m *Metrics) RecordRateLimitDecision(dimension string, allowed bool) {
	result := "deny"
	if allowed {
		result = "allow"
	}
	m.RateLimitDecisions.WithLabelValues(dimension, result).Inc()
}

// RecordBackpressureRejection records a request rejected by
// backpressure admission control.
func (m *Metrics) RecordBackpressureRejection(signal string) {
	m.BackpressureRejections.WithLabelValues(signal).Inc()
}

// WSConnectionOpened increments the active-connection gauge.
func (m *Metrics) WSConnectionOpened() {
	m.WSConnectionsActive.Inc()
}

// WSConnectionClosed decrements the active-connection gauge and
// records the connection's lifetime.
func (m *Metrics) WSConnectionClosed(durationSeconds float64) {
	m.WSConnectionsActive.Dec()
	m.WSConnectionDuration.Observe(durationSeconds)
}

// RecordWSMessage records one WebSocket frame.
func (m *Metrics) RecordWSMessage(direction string) {
	m.WSMessagesTotal.WithLabelValues(direction).Inc()
}

// RecordWSSubscriptionQuotaRejection records a subscribe attempt
// rejected for exceeding a connection's subscription quota.
func (m *Metrics) RecordWSSubscriptionQuotaRejection() {
	m.WSSubscriptionQuotaRejections.Inc()
}

// RecordToolExecution records metrics for a tool execution.
func (m *Metrics) RecordToolExecution(toolName, status string, durationSeconds float64) {
	m.ToolExecutionCounter.WithLabelValues(toolName, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(durationSeconds)
}

// RecordError increments the error counter for a given component and error type.
func (m *Metrics) RecordError(component, errorType string) {
	m.ErrorCounter.WithLabelValues(component, errorType).Inc()
}

// RecordMeshTask records the terminal status of one mesh task.
func (m *Metrics) RecordMeshTask(status string) {
	m.MeshTasksTotal.WithLabelValues(status).Inc()
}

// SetMeshDLQDepth sets the current dead letter queue depth.
func (m *Metrics) SetMeshDLQDepth(depth int) {
	m.MeshDLQDepth.Set(float64(depth))
}

// SetMeshBackpressureSignal sets the current backpressure signal
// (0=normal, 1=warning, 2=critical).
func (m *Metrics) SetMeshBackpressureSignal(signal int) {
	m.MeshBackpressureSignal.Set(float64(signal))
}

// RecordMemoryOperation records metrics for a memory backend operation.
func (m *Metrics) RecordMemoryOperation(backend, operation, status string, durationSeconds float64) {
	m.MemoryOperationCounter.WithLabelValues(backend, operation, status).Inc()
	m.MemoryOperationDuration.WithLabelValues(backend, operation).Observe(durationSeconds)
}
