package transport

import (
	"context"
	"sync"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
)

// CancellationManager tracks in-flight requests of one session so that
// notifications/cancelled can stop them.
type CancellationManager struct {
	mu       sync.Mutex
	requests map[string]*tracked
}

type tracked struct {
	cancel context.CancelFunc
}

// NewCancellationManager creates a new cancellation manager.
func NewCancellationManager() *CancellationManager {
	return &CancellationManager{
		requests: make(map[string]*tracked),
	}
}

// Track registers id and returns a cancellable context for it. The returned
// release func must be called when the request finishes.
//
// Absent ids are not tracked. When an id is reused while still in flight,
// the newest request wins.
func (m *CancellationManager) Track(ctx context.Context, id protocol.RequestID) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	key := id.Key()
	if key == "" {
		return ctx, cancel
	}

	entry := &tracked{cancel: cancel}
	m.mu.Lock()
	m.requests[key] = entry
	m.mu.Unlock()

	return ctx, func() {
		cancel()
		m.mu.Lock()
		if m.requests[key] == entry {
			delete(m.requests, key)
		}
		m.mu.Unlock()
	}
}

// Cancel cancels the request with the given id. It reports whether the
// request was in flight.
func (m *CancellationManager) Cancel(id protocol.RequestID) bool {
	key := id.Key()
	if key == "" {
		return false
	}

	m.mu.Lock()
	entry, ok := m.requests[key]
	if ok {
		delete(m.requests, key)
	}
	m.mu.Unlock()

	if ok {
		entry.cancel()
	}
	return ok
}

// CancelAll cancels every tracked request.
func (m *CancellationManager) CancelAll() {
	m.mu.Lock()
	entries := m.requests
	m.requests = make(map[string]*tracked)
	m.mu.Unlock()

	for _, e := range entries {
		e.cancel()
	}
}

// ActiveRequests returns the number of tracked requests.
func (m *CancellationManager) ActiveRequests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
