package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
)

// PanicHandler is called when a panic is recovered.
type PanicHandler func(ctx context.Context, req *protocol.Request, panicVal any) (*protocol.Response, error)

// Recover returns middleware that turns panics into internal errors.
// The panic value and stack are logged; clients only see "Internal error".
func Recover(logger Logger) Middleware {
	return RecoverWithHandler(func(_ context.Context, req *protocol.Request, panicVal any) (*protocol.Response, error) {
		if logger != nil {
			logger.Error("panic while handling request",
				F("method", string(req.Method)),
				F("panic", fmt.Sprint(panicVal)),
				F("stack", string(debug.Stack())),
			)
		}
		return nil, protocol.NewInternalError()
	})
}

// RecoverWithHandler returns middleware that catches panics and calls handler.
func RecoverWithHandler(handler PanicHandler) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (resp *protocol.Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp, err = handler(ctx, req, r)
				}
			}()
			return next(ctx, req)
		}
	}
}
