// Package middleware provides net/http middleware for the gousse server.
//
// This package includes:
//   - Prometheus request metrics
//   - OpenTelemetry request spans
//   - Request logging and panic recovery
//
// # Prometheus Metrics
//
// Metrics records every request against the chi route pattern that served
// it, so /users/1 and /users/2 share a series:
//   - gousse_http_requests_total: requests by route, method and status
//   - gousse_http_request_duration_seconds: latency by route and method
//   - gousse_http_requests_in_flight: requests being served
//
//	reg := prometheus.NewRegistry()
//	r := chi.NewRouter()
//	r.Use(middleware.Metrics(middleware.WithRegistry(reg)))
//
// # OpenTelemetry
//
// Tracing opens a server span per request. The tracer comes from the
// global provider, so configure it in main() before serving:
//
//	otel.SetTracerProvider(tp)
//	r.Use(middleware.Tracing(middleware.WithTracerName("my-site")))
//
// Handlers reach the span through the request context:
//
//	span := trace.SpanFromContext(r.Context())
//	span.SetAttributes(attribute.Int("my.count", 42))
//
// # Logging
//
// Logger writes one slog record per request and Recover turns handler
// panics into 500 responses:
//
//	r.Use(middleware.Recover(logger), middleware.Logger(logger))
package middleware
