package transport

import (
	"context"
	"testing"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
)

func TestCancellationManager(t *testing.T) {
	t.Run("cancels a tracked request", func(t *testing.T) {
		m := NewCancellationManager()
		ctx, release := m.Track(context.Background(), protocol.NumberID(1))
		defer release()

		if m.ActiveRequests() != 1 {
			t.Fatalf("ActiveRequests() = %d, want 1", m.ActiveRequests())
		}
		if !m.Cancel(protocol.NumberID(1)) {
			t.Fatal("Cancel() = false, want true")
		}
		if ctx.Err() == nil {
			t.Error("context should be cancelled")
		}
		if m.ActiveRequests() != 0 {
			t.Errorf("ActiveRequests() = %d, want 0", m.ActiveRequests())
		}
	})

	t.Run("distinguishes string and number ids", func(t *testing.T) {
		m := NewCancellationManager()
		ctx, release := m.Track(context.Background(), protocol.NumberID(7))
		defer release()

		if m.Cancel(protocol.StringID("7")) {
			t.Error("string id cancelled a numeric request")
		}
		if ctx.Err() != nil {
			t.Error("context should still be live")
		}
	})

	t.Run("unknown and absent ids", func(t *testing.T) {
		m := NewCancellationManager()
		if m.Cancel(protocol.NumberID(99)) {
			t.Error("Cancel() of unknown id = true")
		}

		_, release := m.Track(context.Background(), protocol.AbsentID)
		defer release()
		if m.ActiveRequests() != 0 {
			t.Errorf("absent id was tracked")
		}
		if m.Cancel(protocol.AbsentID) {
			t.Error("Cancel() of absent id = true")
		}
	})

	t.Run("release removes only its own entry", func(t *testing.T) {
		m := NewCancellationManager()
		_, releaseOld := m.Track(context.Background(), protocol.StringID("a"))
		newCtx, releaseNew := m.Track(context.Background(), protocol.StringID("a"))
		defer releaseNew()

		releaseOld()
		if m.ActiveRequests() != 1 {
			t.Fatalf("ActiveRequests() = %d, want 1", m.ActiveRequests())
		}
		m.Cancel(protocol.StringID("a"))
		if newCtx.Err() == nil {
			t.Error("newest request should be cancelled")
		}
	})

	t.Run("CancelAll", func(t *testing.T) {
		m := NewCancellationManager()
		ctx1, r1 := m.Track(context.Background(), protocol.NumberID(1))
		ctx2, r2 := m.Track(context.Background(), protocol.NumberID(2))
		defer r1()
		defer r2()

		m.CancelAll()
		if ctx1.Err() == nil || ctx2.Err() == nil {
			t.Error("all contexts should be cancelled")
		}
		if m.ActiveRequests() != 0 {
			t.Errorf("ActiveRequests() = %d, want 0", m.ActiveRequests())
		}
	})
}
