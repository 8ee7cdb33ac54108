package transport

import (
	"context"
	"testing"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/value"
)

func TestExchange(t *testing.T) {
	handler := testHandler()

	t.Run("returns the handler response", func(t *testing.T) {
		resp := Exchange(context.Background(), handler, protocol.NewRequest(protocol.NumberID(1), "ping", value.Null()))
		if resp == nil || resp.Err() != nil {
			t.Fatalf("Exchange() = %v, want success", resp)
		}
	})

	t.Run("maps errors without leaking them", func(t *testing.T) {
		resp := Exchange(context.Background(), handler, protocol.NewRequest(protocol.NumberID(2), "fail", value.Null()))
		if resp == nil || resp.Err() == nil {
			t.Fatalf("Exchange() = %v, want error response", resp)
		}
		if resp.Err().Code() != protocol.CodeInternalError {
			t.Errorf("code = %d, want %d", resp.Err().Code(), protocol.CodeInternalError)
		}
		if resp.Err().Message != "Internal error" {
			t.Errorf("message = %q", resp.Err().Message)
		}
	})

	t.Run("keeps protocol errors", func(t *testing.T) {
		resp := Exchange(context.Background(), handler, protocol.NewRequest(protocol.StringID("x"), "nope", value.Null()))
		if resp.Err().Code() != protocol.CodeMethodNotFound {
			t.Errorf("code = %d, want %d", resp.Err().Code(), protocol.CodeMethodNotFound)
		}
		if resp.ID != protocol.StringID("x") {
			t.Errorf("id = %s, want \"x\"", resp.ID)
		}
	})

	t.Run("never answers notifications", func(t *testing.T) {
		if resp := Exchange(context.Background(), handler, protocol.NewRequest(protocol.AbsentID, "fail", value.Null())); resp != nil {
			t.Errorf("Exchange() = %v, want nil", resp)
		}
	})

	t.Run("drops cancelled requests", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if resp := Exchange(ctx, handler, protocol.NewRequest(protocol.NumberID(3), "block", value.Null())); resp != nil {
			t.Errorf("Exchange() = %v, want nil", resp)
		}
	})

	t.Run("drops results completed after cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		late := HandlerFunc(func(_ context.Context, req *protocol.Request) (*protocol.Response, error) {
			cancel()
			return protocol.NewResponse(req.ID, value.EmptyObject()), nil
		})
		if resp := Exchange(ctx, late, protocol.NewRequest(protocol.NumberID(4), "ping", value.Null())); resp != nil {
			t.Errorf("Exchange() = %s, want nil", resp.Encode())
		}
	})
}

func TestErrShuttingDown(t *testing.T) {
	err := errShuttingDown()
	if err.Code() != protocol.CodeInternalError {
		t.Errorf("code = %d, want %d", err.Code(), protocol.CodeInternalError)
	}
	reason, _ := err.Data.Get("reason")
	if s, _ := reason.AsString(); s != "shutting_down" {
		t.Errorf("reason = %s, want shutting_down", reason)
	}
}
