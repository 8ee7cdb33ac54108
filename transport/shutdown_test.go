package transport

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestShutdownManager(t *testing.T) {
	t.Run("tracks in-flight requests", func(t *testing.T) {
		sm := NewShutdownManager(DefaultShutdownConfig())

		if !sm.TrackRequest() {
			t.Fatal("TrackRequest() = false")
		}
		if sm.InFlightRequests() != 1 {
			t.Errorf("InFlightRequests() = %d, want 1", sm.InFlightRequests())
		}
		sm.CompleteRequest()
		if sm.InFlightRequests() != 0 {
			t.Errorf("InFlightRequests() = %d, want 0", sm.InFlightRequests())
		}
	})

	t.Run("refuses requests once draining", func(t *testing.T) {
		sm := NewShutdownManager(ShutdownConfig{Timeout: 100 * time.Millisecond})
		if err := sm.Shutdown(context.Background()); err != nil {
			t.Fatalf("Shutdown() error = %v", err)
		}
		if !sm.IsDraining() {
			t.Error("IsDraining() = false")
		}
		if sm.TrackRequest() {
			t.Error("TrackRequest() = true while draining")
		}
		select {
		case <-sm.Done():
		default:
			t.Error("Done() not closed")
		}
	})

	t.Run("waits for in-flight requests", func(t *testing.T) {
		sm := NewShutdownManager(ShutdownConfig{Timeout: time.Second})
		sm.TrackRequest()

		done := make(chan error, 1)
		go func() {
			done <- sm.Shutdown(context.Background())
		}()

		select {
		case <-done:
			t.Fatal("Shutdown() returned with a request in flight")
		case <-time.After(50 * time.Millisecond):
		}

		sm.CompleteRequest()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Shutdown() error = %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Shutdown() did not return")
		}
	})

	t.Run("times out", func(t *testing.T) {
		sm := NewShutdownManager(ShutdownConfig{Timeout: 30 * time.Millisecond})
		sm.TrackRequest()

		if err := sm.Shutdown(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Shutdown() error = %v, want deadline exceeded", err)
		}
	})

	t.Run("callbacks", func(t *testing.T) {
		var drained, completed atomic.Bool
		sm := NewShutdownManager(ShutdownConfig{
			Timeout:            time.Second,
			DrainDelay:         10 * time.Millisecond,
			OnDrainStart:       func() { drained.Store(true) },
			OnShutdownComplete: func(error) { completed.Store(true) },
		})

		if err := sm.Shutdown(context.Background()); err != nil {
			t.Fatal(err)
		}
		if !drained.Load() || !completed.Load() {
			t.Errorf("drain = %v, complete = %v", drained.Load(), completed.Load())
		}
	})
}

func TestDefaultShutdownConfig(t *testing.T) {
	if got := DefaultShutdownConfig().Timeout; got != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", got)
	}
	if sm := NewShutdownManager(ShutdownConfig{}); sm.config.Timeout != 30*time.Second {
		t.Errorf("zero timeout not defaulted: %v", sm.config.Timeout)
	}
}
