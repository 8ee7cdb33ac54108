package middleware

import (
	"context"
	"testing"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
)

func recording(name string, order *[]string) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			*order = append(*order, name+":before")
			resp, err := next(ctx, req)
			*order = append(*order, name+":after")
			return resp, err
		}
	}
}

func TestChain(t *testing.T) {
	t.Run("runs middleware in order", func(t *testing.T) {
		var order []string
		handler := Chain(recording("a", &order), recording("b", &order))(
			func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
				order = append(order, "handler")
				return okHandler(ctx, req)
			})

		if _, err := handler(context.Background(), testRequest(protocol.MethodToolsList)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"a:before", "b:before", "handler", "b:after", "a:after"}
		if len(order) != len(want) {
			t.Fatalf("order = %v, want %v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
			}
		}
	})

	t.Run("empty chain returns handler", func(t *testing.T) {
		resp, err := Chain()(okHandler)(context.Background(), testRequest(protocol.MethodToolsList))
		if err != nil || resp == nil {
			t.Errorf("got %v, %v", resp, err)
		}
	})
}

func TestMiddlewareChain(t *testing.T) {
	var order []string
	chain := Use(recording("a", &order)).Append(recording("b", &order))
	if chain.Len() != 2 {
		t.Errorf("Len() = %d, want 2", chain.Len())
	}

	handler := chain.ThenFunc(okHandler)
	if _, err := handler(context.Background(), testRequest(protocol.MethodToolsList)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 4 || order[0] != "a:before" || order[1] != "b:before" {
		t.Errorf("order = %v", order)
	}
}

func TestDefaultStack(t *testing.T) {
	logger := &mockLogger{}
	handler := Chain(DefaultStack(logger)...)(func(context.Context, *protocol.Request) (*protocol.Response, error) {
		panic("boom")
	})

	_, err := handler(context.Background(), testRequest(protocol.MethodToolsCall))
	var perr *protocol.Error
	if !asProtocolError(err, &perr) || perr.Code() != protocol.CodeInternalError {
		t.Fatalf("err = %v, want internal error", err)
	}
	if len(DefaultStackWithTimeout(logger, 0)) != 4 {
		t.Error("DefaultStackWithTimeout should have 4 middleware")
	}
}
