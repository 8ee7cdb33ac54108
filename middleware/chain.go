package middleware

import (
	"context"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
)

// HandlerFunc handles one decoded request.
//
// A nil response with a nil error means the request must not be answered,
// which is the case for notifications and cancelled requests.
type HandlerFunc func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// Middleware wraps a handler with additional behavior.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middleware so that Chain(m1, m2)(h) runs m1, then m2, then h.
func Chain(middlewares ...Middleware) Middleware {
	return func(final HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// MiddlewareChain builds a chain incrementally.
type MiddlewareChain struct {
	middlewares []Middleware
}

// Use starts a chain with the given middleware.
func Use(middlewares ...Middleware) *MiddlewareChain {
	return &MiddlewareChain{
		middlewares: append([]Middleware(nil), middlewares...),
	}
}

// Append adds middleware to the end of the chain.
func (c *MiddlewareChain) Append(middlewares ...Middleware) *MiddlewareChain {
	c.middlewares = append(c.middlewares, middlewares...)
	return c
}

// Len returns the number of middleware in the chain.
func (c *MiddlewareChain) Len() int {
	return len(c.middlewares)
}

// Then wraps handler with the chain.
func (c *MiddlewareChain) Then(handler HandlerFunc) HandlerFunc {
	return Chain(c.middlewares...)(handler)
}

// ThenFunc wraps fn with the chain.
func (c *MiddlewareChain) ThenFunc(fn func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)) HandlerFunc {
	return c.Then(HandlerFunc(fn))
}
