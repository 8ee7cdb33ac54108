package middleware

import (
	"context"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/value"
)

// SizeLimitOption configures the size limit middleware.
type SizeLimitOption func(*sizeLimitConfig)

type sizeLimitConfig struct {
	logger Logger
}

// WithSizeLimitLogger sets the logger for size limit events.
func WithSizeLimitLogger(l Logger) SizeLimitOption {
	return func(o *sizeLimitConfig) {
		o.logger = l
	}
}

// SizeLimit returns middleware that rejects messages larger than maxBytes
// with an invalid request error. The size is that of the raw message; requests
// built in process have no size and always pass.
func SizeLimit(maxBytes int64, opts ...SizeLimitOption) Middleware {
	cfg := &sizeLimitConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			size := int64(req.Size)
			if maxBytes > 0 && size > maxBytes {
				if cfg.logger != nil {
					cfg.logger.Warn("request size limit exceeded",
						F("method", string(req.Method)),
						F("size", size),
						F("max", maxBytes),
					)
				}
				return nil, protocol.NewInvalidRequest().WithData(value.Object(map[string]value.Value{
					"size":  value.Int(size),
					"limit": value.Int(maxBytes),
				}))
			}

			return next(ctx, req)
		}
	}
}

// Common size limit presets.
const (
	KB = 1024
	MB = 1024 * 1024
)
