package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
)

func asProtocolError(err error, target **protocol.Error) bool {
	return errors.As(err, target)
}

func TestRecover(t *testing.T) {
	t.Run("passes through normal responses", func(t *testing.T) {
		resp, err := Recover(nil)(okHandler)(context.Background(), testRequest(protocol.MethodToolsList))
		if err != nil || resp == nil {
			t.Errorf("got %v, %v", resp, err)
		}
	})

	panics := []any{"string panic", errors.New("error panic"), 42}
	for _, p := range panics {
		logger := &mockLogger{}
		handler := Recover(logger)(func(context.Context, *protocol.Request) (*protocol.Response, error) {
			panic(p)
		})

		resp, err := handler(context.Background(), testRequest(protocol.MethodToolsCall))
		if resp != nil {
			t.Errorf("panic %v: expected nil response", p)
		}
		var perr *protocol.Error
		if !asProtocolError(err, &perr) {
			t.Fatalf("panic %v: err = %v, want *protocol.Error", p, err)
		}
		if perr.Code() != protocol.CodeInternalError || perr.Message != "Internal error" {
			t.Errorf("panic %v: error = %v", p, perr)
		}
		if len(logger.entries) != 1 || logger.entries[0].level != "error" {
			t.Errorf("panic %v: log entries = %+v", p, logger.entries)
		}
	}
}

func TestRecoverWithHandler(t *testing.T) {
	var got any
	handler := RecoverWithHandler(func(_ context.Context, req *protocol.Request, v any) (*protocol.Response, error) {
		got = v
		return protocol.NewErrorResponse(req.ID, protocol.NewInternalError()), nil
	})(func(context.Context, *protocol.Request) (*protocol.Response, error) {
		panic("custom")
	})

	resp, err := handler(context.Background(), testRequest(protocol.MethodToolsCall))
	if err != nil || resp == nil || resp.Err() == nil {
		t.Errorf("got %v, %v", resp, err)
	}
	if got != "custom" {
		t.Errorf("panic value = %v, want custom", got)
	}
}
