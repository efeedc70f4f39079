// Package observability provides monitoring and debugging capabilities
// for the Skreaver agent execution runtime through metrics, structured
// logging, and distributed tracing.
//
// # Overview
//
// The observability package implements the three pillars of observability:
//
//  1. Metrics - Quantitative measurements using Prometheus
//  2. Logging - Structured logs with sensitive data redaction
//  3. Tracing - Distributed request tracing with OpenTelemetry
//
// # Architecture
//
// The package is designed to be:
//   - Low-overhead: Minimal performance impact on production systems
//   - Type-safe: Strongly-typed APIs reduce configuration errors
//   - Production-ready: Built-in security (redaction) and reliability features
//   - Standards-based: Uses Prometheus, OpenTelemetry, and slog
//
// # Metrics
//
// Metrics are implemented using the Prometheus client library and track:
//   - HTTP request latency and status by route (C9)
//   - Authentication and rate limit admission decisions (C9)
//   - WebSocket connection counts and subscription quota rejections (C10)
//   - Tool execution performance dispatched through toolregistry (C3-C6)
//   - Agent mesh task outcomes, DLQ depth, and backpressure signal (C11)
//   - Memory backend operation latency (C2)
//   - Error rates by component and type
//
// Example usage:
//
//	metrics := observability.NewMetrics()
//	// mounted at /metrics via promhttp.Handler() (see internal/httpapi)
//
//	// Track an HTTP request
//	start := time.Now()
//	// ... handle request ...
//	metrics.RecordHTTPRequest("GET", "/v1/jobs/{id}", "200", time.Since(start).Seconds())
//
//	// Track a tool execution
//	start = time.Now()
//	// ... dispatch tool ...
//	metrics.RecordToolExecution("websearch_query", "success", time.Since(start).Seconds())
//
// # Logging
//
// Logging is built on Go's slog package with enhancements for:
//   - Automatic request ID correlation from context
//   - Sensitive data redaction (API keys, passwords, tokens)
//   - JSON output for production, text for development
//   - Configurable log levels
//
// Example usage:
//
//	logger := observability.NewLogger(observability.LogConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    AddSource: true,
//	})
//
//	ctx := observability.AddRequestID(ctx, requestID)
//	ctx = observability.AddSessionID(ctx, sessionID)
//
//	logger.Info(ctx, "dispatching tool",
//	    "tool_name", "files_edit",
//	    "principal", principal,
//	)
//
//	logger.Error(ctx, "jwt validation failed",
//	    "error", err,
//	    "authorization", header, // Automatically redacted
//	)
//
// # Tracing
//
// Distributed tracing uses OpenTelemetry to correlate a request across
// the HTTP runtime, WebSocket sessions, tool dispatch, and mesh task
// distribution:
//   - End-to-end request visualization
//   - Performance bottleneck identification
//   - Error correlation across components
//
// Example usage:
//
//	tracer, shutdown := observability.NewTracer(observability.TraceConfig{
//	    ServiceName: "skreaver",
//	    Mode:        cfg.Observability.TracingMode, // "stdout" or "disabled"
//	})
//	defer shutdown(context.Background())
//
//	ctx, span := tracer.TraceHTTPRequest(ctx, "POST", "/v1/jobs")
//	defer span.End()
//
//	ctx, toolSpan := tracer.TraceToolExecution(ctx, "files_edit")
//	defer toolSpan.End()
//	if err != nil {
//	    tracer.RecordError(toolSpan, err)
//	}
//
// # Context Propagation
//
// All three components integrate with Go's context for automatic correlation:
//
//	ctx = observability.AddRequestID(ctx, "req-123")
//	ctx = observability.AddSessionID(ctx, "sess-456")
//
//	logger.Info(ctx, "dispatching") // Includes request_id, session_id, etc.
//
//	ctx, span := tracer.Start(ctx, "operation")
//	// Trace context propagates to child spans
//
// # Security Considerations
//
// The logging component automatically redacts:
//   - API keys and JWT secrets
//   - Passwords and secrets
//   - Bearer tokens and Authorization headers
//   - Custom patterns via configuration
//
// Sensitive fields in maps are also redacted:
//   - password, passwd, pwd
//   - secret, api_key, apikey
//   - token, auth, authorization
//   - private_key, privatekey
//
// # Testing
//
// All components provide testable interfaces:
//   - Metrics can be verified using prometheus/testutil
//   - Logging can write to bytes.Buffer for assertions
//   - Tracing works with the stdout exporter or a no-op tracer in tests
//
// # Best Practices
//
//  1. Always propagate context to enable correlation
//  2. Use defer for span.End() to ensure spans are closed
//  3. Record errors on both metrics and traces
//  4. Use structured logging with key-value pairs
//  5. Add relevant attributes to spans for debugging
//  6. Use typed, bounded-cardinality metric labels (route patterns and
//     tool names, never raw session/connection IDs)
//  7. Call shutdown() on tracer during graceful shutdown
package observability
