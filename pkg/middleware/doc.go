// Package middleware provides production-grade middleware for Ripple servers.
//
// This package includes:
//   - Prometheus metrics middleware and pass/session recorders
//   - OpenTelemetry tracing middleware and per-pass spans
//
// # Prometheus Metrics
//
// The Prometheus middleware collects metrics about a Ripple server:
//   - ripple_passes_total: Total propagation passes run
//   - ripple_pass_duration_seconds: Pass duration histogram
//   - ripple_node_recomputes_total, ripple_effects_run_total: node activity
//   - ripple_active_sessions, ripple_sessions_total: session tracking
//   - ripple_http_requests_total: HTTP requests by path and status
//
//	r.Use(middleware.Prometheus())
//	r.Handle("/metrics", promhttp.Handler())
//
// Configure with options:
//
//	middleware.Prometheus(
//	    middleware.WithNamespace("myapp"),
//	    middleware.WithRegistry(registry),
//	)
//
// Pass-level counters are fed from server code:
//
//	sess.OnPass(middleware.RecordPass)
//
// # OpenTelemetry Tracing
//
// The OpenTelemetry middleware wraps every HTTP request in a span, and
// StartPass/EndPass wrap each drain of a session's change queue. The
// tracer uses the global tracer provider; configure it in main() before
// starting the server:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//
// Filter requests or attach custom attributes:
//
//	middleware.OpenTelemetry(
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	)
package middleware
