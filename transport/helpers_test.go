package transport

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/value"
)

// testHandler answers a few fixed methods:
//
//	ping   -> {}
//	echo   -> params
//	origin -> the transport name attached to the context
//	block  -> waits for cancellation
//	fail   -> a plain error
func testHandler() HandlerFunc {
	return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
		switch req.Method {
		case "ping":
			return protocol.NewResponse(req.ID, value.EmptyObject()), nil
		case "echo":
			return protocol.NewResponse(req.ID, req.Params), nil
		case "origin":
			origin, _ := protocol.OriginFromContext(ctx)
			return protocol.NewResponse(req.ID, value.String(origin.Transport)), nil
		case "block":
			<-ctx.Done()
			return nil, ctx.Err()
		case "fail":
			return nil, errors.New("database password is hunter2")
		}
		if req.IsNotification() {
			return nil, nil
		}
		return nil, protocol.NewMethodNotFound(string(req.Method))
	}
}

func message(id protocol.RequestID, method string, params value.Value) []byte {
	return protocol.NewRequest(id, protocol.Method(method), params).Encode()
}

func decodeResponse(t *testing.T, data []byte) *protocol.Response {
	t.Helper()
	resp, err := protocol.DecodeResponse(data)
	if err != nil {
		t.Fatalf("invalid response %q: %v", data, err)
	}
	return resp
}

// collector records written messages and signals each write.
type collector struct {
	mu       sync.Mutex
	messages [][]byte
	written  chan struct{}
}

func newCollector() *collector {
	return &collector{written: make(chan struct{}, 64)}
}

func (c *collector) write(data []byte) error {
	c.mu.Lock()
	c.messages = append(c.messages, append([]byte(nil), data...))
	c.mu.Unlock()
	c.written <- struct{}{}
	return nil
}

func (c *collector) all() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.messages...)
}
