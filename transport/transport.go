package transport

import (
	"context"
	"errors"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/value"
)

// Handler processes decoded requests. *server.Server satisfies it.
type Handler interface {
	HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error)
}

// HandlerFunc is an adapter to allow ordinary functions as handlers.
type HandlerFunc func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// HandleRequest calls f(ctx, req).
func (f HandlerFunc) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return f(ctx, req)
}

// Transport moves protocol messages between clients and a Handler.
type Transport interface {
	// Serve blocks until ctx is cancelled, the input ends or an error occurs.
	Serve(ctx context.Context, handler Handler) error

	// Addr returns the transport's address description.
	Addr() string
}

// Exchange runs req through handler and returns the response to send, or
// nil when nothing must be sent.
//
// Notifications are never answered. A request whose context was cancelled
// while it ran is not answered either. Any other handler error becomes an
// error response.
func Exchange(ctx context.Context, handler Handler, req *protocol.Request) *protocol.Response {
	resp, err := handler.HandleRequest(ctx, req)
	if req.IsNotification() {
		return nil
	}
	// A cancelled request is never answered, even if the handler finished.
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil
		}
		return protocol.NewErrorResponse(req.ID, protocol.FromError(err))
	}
	return resp
}

// errShuttingDown answers requests that arrive while a transport drains.
func errShuttingDown() *protocol.Error {
	return protocol.NewInternalError().WithData(value.Object(map[string]value.Value{
		"reason": value.String("shutting_down"),
	}))
}
