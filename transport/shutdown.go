package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ShutdownConfig configures graceful shutdown.
type ShutdownConfig struct {
	// Timeout bounds the wait for in-flight requests. Default: 30 seconds.
	Timeout time.Duration

	// DrainDelay is waited before new requests are refused.
	DrainDelay time.Duration

	// OnDrainStart is called when new requests start being refused.
	OnDrainStart func()

	// OnShutdownComplete is called with the result of Shutdown.
	OnShutdownComplete func(err error)
}

// DefaultShutdownConfig returns the default shutdown configuration.
func DefaultShutdownConfig() ShutdownConfig {
	return ShutdownConfig{Timeout: 30 * time.Second}
}

// ShutdownManager counts in-flight requests and drains them on shutdown.
type ShutdownManager struct {
	config ShutdownConfig

	draining  atomic.Bool
	inFlight  atomic.Int64
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewShutdownManager creates a new shutdown manager.
func NewShutdownManager(config ShutdownConfig) *ShutdownManager {
	if config.Timeout <= 0 {
		config.Timeout = DefaultShutdownConfig().Timeout
	}
	return &ShutdownManager{
		config: config,
		doneCh: make(chan struct{}),
	}
}

// IsDraining reports whether new requests are being refused.
func (sm *ShutdownManager) IsDraining() bool {
	return sm.draining.Load()
}

// InFlightRequests returns the number of in-flight requests.
func (sm *ShutdownManager) InFlightRequests() int64 {
	return sm.inFlight.Load()
}

// TrackRequest counts a new request. It returns false while draining, in
// which case the request must be refused and CompleteRequest not called.
func (sm *ShutdownManager) TrackRequest() bool {
	if sm.draining.Load() {
		return false
	}
	sm.inFlight.Add(1)
	return true
}

// CompleteRequest marks a tracked request as finished.
func (sm *ShutdownManager) CompleteRequest() {
	sm.inFlight.Add(-1)
}

// Shutdown stops accepting requests and waits for in-flight ones to finish.
// It returns context.DeadlineExceeded if requests are still running when
// the timeout elapses.
func (sm *ShutdownManager) Shutdown(ctx context.Context) error {
	if sm.config.DrainDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sm.config.DrainDelay):
		}
	}

	sm.draining.Store(true)
	if sm.config.OnDrainStart != nil {
		sm.config.OnDrainStart()
	}

	err := sm.waitIdle(ctx)

	sm.closeOnce.Do(func() { close(sm.doneCh) })
	if sm.config.OnShutdownComplete != nil {
		sm.config.OnShutdownComplete(err)
	}
	return err
}

func (sm *ShutdownManager) waitIdle(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, sm.config.Timeout)
	defer cancel()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for sm.inFlight.Load() > 0 {
		select {
		case <-ctx.Done():
			if sm.inFlight.Load() > 0 {
				return ctx.Err()
			}
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

// Done returns a channel that is closed when shutdown is complete.
func (sm *ShutdownManager) Done() <-chan struct{} {
	return sm.doneCh
}
