package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/value"
)

// Timeout returns middleware that gives each request a deadline of d.
//
// A request that runs out of time is answered with an internal error whose
// data carries reason "timeout". Cancellation of the parent context is passed
// through untouched. A non-positive d disables the deadline.
func Timeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		if d <= 0 {
			return next
		}
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			tctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			resp, err := next(tctx, req)
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, protocol.NewInternalError().WithData(value.Object(map[string]value.Value{
					"reason": value.String("timeout"),
				}))
			}
			return resp, err
		}
	}
}
