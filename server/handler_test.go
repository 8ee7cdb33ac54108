package server

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAwait(t *testing.T) {
	t.Run("returns the value", func(t *testing.T) {
		got, err := await(context.Background(), func(context.Context) (int, error) { return 7, nil })
		if err != nil || got != 7 {
			t.Errorf("await() = %d, %v; want 7, nil", got, err)
		}
	})

	t.Run("returns the error", func(t *testing.T) {
		want := errors.New("failed")
		_, err := await(context.Background(), func(context.Context) (int, error) { return 0, want })
		if !errors.Is(err, want) {
			t.Errorf("await() error = %v, want %v", err, want)
		}
	})

	t.Run("recovers panics", func(t *testing.T) {
		_, err := await(context.Background(), func(context.Context) (string, error) { panic("boom") })
		if !errors.Is(err, errPanic) {
			t.Errorf("await() error = %v, want errPanic", err)
		}
	})

	t.Run("stops waiting when the context ends", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := await(ctx, func(context.Context) (int, error) {
			<-release
			return 1, nil
		})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("await() error = %v, want deadline exceeded", err)
		}
	})
}
