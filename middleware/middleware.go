package middleware

import "time"

// DefaultStack returns the middleware every transport runs requests through:
// panic recovery, request ID injection and logging.
func DefaultStack(logger Logger) []Middleware {
	return []Middleware{
		Recover(logger),
		RequestID(),
		Logging(logger),
	}
}

// DefaultStackWithTimeout returns the default stack with a per-request deadline.
func DefaultStackWithTimeout(logger Logger, timeout time.Duration) []Middleware {
	return []Middleware{
		Recover(logger),
		RequestID(),
		Timeout(timeout),
		Logging(logger),
	}
}
