package middleware

import (
	"context"
	"time"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
)

// Logger is the interface for structured logging.
type Logger interface {
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logging returns middleware that logs every request after it completes.
// Successes are logged at info level, failures at error level. Requests
// that end without a response are logged at debug level.
func Logging(logger Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			start := time.Now()

			resp, err := next(ctx, req)

			fields := []Field{
				F("method", string(req.Method)),
				F("duration", time.Since(start)),
			}
			if !req.ID.IsAbsent() {
				fields = append(fields, F("id", req.ID.String()))
			}
			if requestID := RequestIDFromContext(ctx); requestID != "" {
				fields = append(fields, F("request_id", requestID))
			}
			if origin, ok := protocol.OriginFromContext(ctx); ok {
				fields = append(fields, F("transport", origin.Transport))
				if origin.Peer != "" {
					fields = append(fields, F("peer", origin.Peer))
				}
			}

			switch {
			case err != nil:
				fields = append(fields, F("error", err.Error()))
				logger.Error("request failed", fields...)
			case resp == nil:
				logger.Debug("request completed without response", fields...)
			case resp.Err() != nil:
				fields = append(fields, F("code", resp.Err().Code()))
				logger.Warn("request answered with error", fields...)
			default:
				logger.Info("request completed", fields...)
			}

			return resp, err
		}
	}
}

// NopLogger is a logger that discards all log entries.
type NopLogger struct{}

func (NopLogger) Info(msg string, fields ...Field)  {}
func (NopLogger) Error(msg string, fields ...Field) {}
func (NopLogger) Debug(msg string, fields ...Field) {}
func (NopLogger) Warn(msg string, fields ...Field)  {}
