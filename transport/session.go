package transport

import (
	"context"
	"sync"

	"github.com/ClassicalDude/swift-mcp-server/middleware"
	"github.com/ClassicalDude/swift-mcp-server/protocol"
)

// Session serves one client connection. Each request runs on its own
// goroutine, so responses may be written out of order.
type Session struct {
	handler  Handler
	write    func([]byte) error
	logger   middleware.Logger
	origin   protocol.Origin
	cancels  *CancellationManager
	shutdown *ShutdownManager

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the logger for session events.
func WithSessionLogger(l middleware.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

// WithSessionOrigin sets the origin attached to every request context.
func WithSessionOrigin(o protocol.Origin) SessionOption {
	return func(s *Session) {
		s.origin = o
	}
}

// WithSessionShutdown makes the session count requests against sm and
// refuse new ones while it drains.
func WithSessionShutdown(sm *ShutdownManager) SessionOption {
	return func(s *Session) {
		s.shutdown = sm
	}
}

// NewSession creates a session that hands encoded messages to write.
// Calls to write are serialised.
func NewSession(handler Handler, write func([]byte) error, opts ...SessionOption) *Session {
	s := &Session{
		handler: handler,
		write:   write,
		logger:  middleware.NopLogger{},
		cancels: NewCancellationManager(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch decodes one message and starts handling it. It returns once the
// message has been decoded; the response, if any, is written later.
func (s *Session) Dispatch(ctx context.Context, data []byte) {
	req, perr := protocol.DecodeRequest(data)
	if perr != nil {
		s.logger.Debug("undecodable message", middleware.F("error", perr.Error()), middleware.F("size", len(data)))
		s.send(protocol.NewErrorResponse(req.ID, perr))
		return
	}

	if req.Method == protocol.MethodCancelled {
		s.cancel(req)
		return
	}

	if s.shutdown != nil {
		if !s.shutdown.TrackRequest() {
			if !req.IsNotification() {
				s.send(protocol.NewErrorResponse(req.ID, errShuttingDown()))
			}
			return
		}
	}

	ctx = protocol.ContextWithOrigin(ctx, s.origin)
	ctx, release := s.cancels.Track(ctx, req.ID)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer release()
		if s.shutdown != nil {
			defer s.shutdown.CompleteRequest()
		}

		if resp := Exchange(ctx, s.handler, req); resp != nil && ctx.Err() == nil {
			s.send(resp)
		}
	}()
}

// Wait blocks until every dispatched request has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close cancels in-flight requests and waits for them.
func (s *Session) Close() {
	s.cancels.CancelAll()
	s.wg.Wait()
}

// InFlight returns the number of requests that can still be cancelled.
func (s *Session) InFlight() int {
	return s.cancels.ActiveRequests()
}

func (s *Session) cancel(req *protocol.Request) {
	idVal, _ := req.Param("requestId")
	id := protocol.ParseRequestID(idVal)
	reason, _ := req.Param("reason")

	if s.cancels.Cancel(id) {
		s.logger.Debug("request cancelled", middleware.F("id", id.String()), middleware.F("reason", reason.String()))
		return
	}
	s.logger.Debug("cancel for unknown request", middleware.F("id", id.String()))
}

func (s *Session) send(resp *protocol.Response) {
	data := resp.Encode()

	s.writeMu.Lock()
	err := s.write(data)
	s.writeMu.Unlock()

	if err != nil {
		s.logger.Warn("write response failed", middleware.F("id", resp.ID.String()), middleware.F("error", err.Error()))
	}
}
