package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/value"
)

// RateLimitOption configures the rate limiter.
type RateLimitOption func(*rateLimitConfig)

type rateLimitConfig struct {
	keyFunc func(context.Context, *protocol.Request) string
	logger  Logger
}

// WithRateLimitKeyFunc sets the function that buckets requests.
func WithRateLimitKeyFunc(fn func(context.Context, *protocol.Request) string) RateLimitOption {
	return func(o *rateLimitConfig) {
		o.keyFunc = fn
	}
}

// WithRateLimitLogger sets the logger for rate limit events.
func WithRateLimitLogger(l Logger) RateLimitOption {
	return func(o *rateLimitConfig) {
		o.logger = l
	}
}

// RateLimit returns middleware that limits requests to rate per second with
// the given burst, using a token bucket.
//
// Rejected requests are answered with an internal error whose data carries
// reason "rate_limited". Notifications are never limited.
func RateLimit(rate int, burst int, opts ...RateLimitOption) Middleware {
	cfg := &rateLimitConfig{
		keyFunc: func(context.Context, *protocol.Request) string { return "global" },
	}
	for _, opt := range opts {
		opt(cfg)
	}

	limiter := ratelimit.New(&ratelimit.Config{
		Rate:     rate,
		Burst:    burst,
		Interval: time.Second,
	})

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if req.IsNotification() {
				return next(ctx, req)
			}

			key := cfg.keyFunc(ctx, req)
			if !limiter.Allow(ctx, key) {
				if cfg.logger != nil {
					cfg.logger.Warn("rate limit exceeded",
						F("method", string(req.Method)),
						F("key", key),
					)
				}
				return nil, protocol.NewInternalError().WithData(value.Object(map[string]value.Value{
					"reason": value.String("rate_limited"),
				}))
			}

			return next(ctx, req)
		}
	}
}

// RateLimitByMethod applies a separate limit to each method.
func RateLimitByMethod(rate int, burst int, opts ...RateLimitOption) Middleware {
	allOpts := append([]RateLimitOption{
		WithRateLimitKeyFunc(func(_ context.Context, req *protocol.Request) string {
			return string(req.Method)
		}),
	}, opts...)
	return RateLimit(rate, burst, allOpts...)
}

// RateLimitByPeer applies a separate limit to each remote peer. Requests
// without an origin share one bucket.
func RateLimitByPeer(rate int, burst int, opts ...RateLimitOption) Middleware {
	allOpts := append([]RateLimitOption{
		WithRateLimitKeyFunc(func(ctx context.Context, _ *protocol.Request) string {
			if origin, ok := protocol.OriginFromContext(ctx); ok && origin.Peer != "" {
				return origin.Peer
			}
			return "local"
		}),
	}, opts...)
	return RateLimit(rate, burst, allOpts...)
}
