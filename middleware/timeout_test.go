package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
)

func waitForContext(ctx context.Context, _ *protocol.Request) (*protocol.Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTimeout(t *testing.T) {
	t.Run("fast handler completes", func(t *testing.T) {
		resp, err := Timeout(time.Second)(okHandler)(context.Background(), testRequest(protocol.MethodToolsList))
		if err != nil || resp == nil {
			t.Errorf("got %v, %v", resp, err)
		}
	})

	t.Run("slow handler gets an internal error", func(t *testing.T) {
		_, err := Timeout(10*time.Millisecond)(waitForContext)(context.Background(), testRequest(protocol.MethodToolsCall))

		var perr *protocol.Error
		if !errors.As(err, &perr) {
			t.Fatalf("err = %v, want *protocol.Error", err)
		}
		if perr.Code() != protocol.CodeInternalError {
			t.Errorf("code = %d, want %d", perr.Code(), protocol.CodeInternalError)
		}
		reason, _ := perr.Data.Get("reason")
		if s, _ := reason.AsString(); s != "timeout" {
			t.Errorf("reason = %s, want timeout", reason)
		}
	})

	t.Run("parent cancellation passes through", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Timeout(time.Second)(waitForContext)(ctx, testRequest(protocol.MethodToolsCall))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})

	t.Run("zero disables the deadline", func(t *testing.T) {
		var hasDeadline bool
		_, _ = Timeout(0)(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			_, hasDeadline = ctx.Deadline()
			return okHandler(ctx, req)
		})(context.Background(), testRequest(protocol.MethodToolsList))
		if hasDeadline {
			t.Error("expected no deadline")
		}
	})
}
