package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/value"
)

type methodHandler func(s *Server, ctx context.Context, req *protocol.Request) (value.Value, error)

var methodHandlers = map[protocol.Method]methodHandler{
	protocol.MethodInitialize:    (*Server).handleInitialize,
	protocol.MethodInitialized:   (*Server).handleInitialized,
	protocol.MethodToolsList:     (*Server).handleToolsList,
	protocol.MethodToolsCall:     (*Server).handleToolsCall,
	protocol.MethodResourcesList: (*Server).handleResourcesList,
	protocol.MethodResourcesRead: (*Server).handleResourcesRead,
}

// errPanic marks a recovered handler panic.
var errPanic = errors.New("handler panicked")

// await runs fn on its own goroutine and waits for it or for ctx.
// A panic in fn is returned as an error wrapping errPanic.
func await[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", errPanic, r)}
			}
		}()
		v, err := fn(ctx)
		done <- outcome{val: v, err: err}
	}()

	select {
	case out := <-done:
		return out.val, out.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (s *Server) handleInitialize(_ context.Context, _ *protocol.Request) (value.Value, error) {
	return value.Object(map[string]value.Value{
		"protocolVersion": value.String(protocol.MCPVersion),
		"capabilities": value.Object(map[string]value.Value{
			"tools": value.Object(map[string]value.Value{
				"listChanged": value.Bool(true),
			}),
			"resources": value.Object(map[string]value.Value{
				"subscribe":   value.Bool(true),
				"listChanged": value.Bool(true),
			}),
		}),
		"serverInfo": value.Object(map[string]value.Value{
			"name":    value.String(s.info.Name),
			"version": value.String(s.info.Version),
		}),
	}), nil
}

func (s *Server) handleInitialized(_ context.Context, _ *protocol.Request) (value.Value, error) {
	return value.EmptyObject(), nil
}
