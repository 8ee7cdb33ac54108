// Package middleware provides request middleware and the logging interface
// shared by the server and its transports.
//
// Each middleware wraps the next handler:
//
//	chain := middleware.Chain(
//	    middleware.Recover(logger),
//	    middleware.RequestID(),
//	    middleware.Logging(logger),
//	)
//	handler := chain(srv.HandleRequest)
//
// # Available Middleware
//
//   - Recover: turns panics into internal errors and logs them
//   - RequestID: tags the context with a ULID for log correlation
//   - Logging: logs method, duration and outcome of each request
//   - Timeout: bounds request duration
//   - RateLimit: token bucket limits, globally, per method or per peer
//   - SizeLimit: rejects oversized messages
//   - OTel: OpenTelemetry spans and metrics
//
// Every rejection uses the protocol's closed error taxonomy. Rate limiting
// and timeouts answer with an internal error whose data names the reason.
//
// # Logging
//
// Logger is a small structured logging interface. NewSlogLogger adapts a
// *slog.Logger; NopLogger discards everything.
package middleware
