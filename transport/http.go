package transport

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ClassicalDude/swift-mcp-server/middleware"
	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/value"
)

// HTTP serves JSON-RPC requests posted to /mcp, one request per POST.
type HTTP struct {
	addr           string
	readTimeout    time.Duration
	writeTimeout   time.Duration
	maxMessageSize int64
	token          string
	corsConfig     *CORSConfig
	logger         middleware.Logger
	shutdown       *ShutdownManager

	mu         sync.RWMutex
	listenAddr string
	server     *http.Server
}

// HTTPOption configures the HTTP transport.
type HTTPOption func(*HTTP)

// WithReadTimeout sets the read timeout for HTTP requests.
func WithReadTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.readTimeout = d
	}
}

// WithWriteTimeout sets the write timeout for HTTP responses.
func WithWriteTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.writeTimeout = d
	}
}

// WithHTTPMaxMessageSize sets the largest accepted request body in bytes.
func WithHTTPMaxMessageSize(n int64) HTTPOption {
	return func(h *HTTP) {
		h.maxMessageSize = n
	}
}

// WithBearerToken requires every /mcp request to carry
// "Authorization: Bearer <token>". An empty token disables the check.
func WithBearerToken(token string) HTTPOption {
	return func(h *HTTP) {
		h.token = token
	}
}

// WithHTTPLogger sets the logger for transport events.
func WithHTTPLogger(l middleware.Logger) HTTPOption {
	return func(h *HTTP) {
		h.logger = l
	}
}

// WithShutdownConfig sets how in-flight requests are drained on shutdown.
func WithShutdownConfig(config ShutdownConfig) HTTPOption {
	return func(h *HTTP) {
		h.shutdown = NewShutdownManager(config)
	}
}

// NewHTTP creates a new HTTP transport.
func NewHTTP(addr string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		addr:           addr,
		readTimeout:    30 * time.Second,
		writeTimeout:   30 * time.Second,
		maxMessageSize: int64(DefaultMaxMessageSize),
		logger:         middleware.NopLogger{},
	}

	for _, opt := range opts {
		opt(h)
	}
	if h.shutdown == nil {
		h.shutdown = NewShutdownManager(DefaultShutdownConfig())
	}

	return h
}

// Addr returns the configured address.
func (h *HTTP) Addr() string {
	return h.addr
}

// ListenAddr returns the actual address the server is listening on.
func (h *HTTP) ListenAddr() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.listenAddr
}

// Serve starts the HTTP server. When ctx is cancelled new requests are
// refused, in-flight ones are drained and ctx.Err() is returned.
func (h *HTTP) Serve(ctx context.Context, handler Handler) error {
	listener, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	server := &http.Server{
		Handler:      h.Handler(handler),
		ReadTimeout:  h.readTimeout,
		WriteTimeout: h.writeTimeout,
	}

	h.mu.Lock()
	h.listenAddr = listener.Addr().String()
	h.server = server
	h.mu.Unlock()

	h.logger.Info("http transport listening", middleware.F("addr", listener.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		drainCtx, cancel := context.WithTimeout(context.Background(), h.shutdown.config.Timeout)
		defer cancel()
		if err := h.shutdown.Shutdown(drainCtx); err != nil {
			h.logger.Warn("drain incomplete", middleware.F("in_flight", h.shutdown.InFlightRequests()))
		}
		if err := server.Shutdown(drainCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Handler returns the http.Handler serving /mcp and /health.
func (h *HTTP) Handler(handler Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, value.Object(map[string]value.Value{
			"status": value.String("ok"),
		}))
	})

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		h.handleMCP(w, r, handler)
	})

	if h.corsConfig != nil {
		return CORSHandler(*h.corsConfig, mux)
	}
	return mux
}

func (h *HTTP) handleMCP(w http.ResponseWriter, r *http.Request, handler Handler) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if !h.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="mcp"`)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxMessageSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeResponse(w, http.StatusRequestEntityTooLarge, protocol.NewErrorResponse(protocol.AbsentID,
				protocol.NewInvalidRequest().WithData(value.Object(map[string]value.Value{
					"limit": value.Int(tooLarge.Limit),
				}))))
			return
		}
		h.logger.Debug("read request body failed", middleware.F("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	req, perr := protocol.DecodeRequest(body)
	if perr != nil {
		writeResponse(w, http.StatusOK, protocol.NewErrorResponse(req.ID, perr))
		return
	}

	// One request per POST leaves nothing in flight to cancel.
	if req.Method == protocol.MethodCancelled {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if !h.shutdown.TrackRequest() {
		writeResponse(w, http.StatusServiceUnavailable, protocol.NewErrorResponse(req.ID, errShuttingDown()))
		return
	}
	defer h.shutdown.CompleteRequest()

	ctx := protocol.ContextWithOrigin(r.Context(), protocol.Origin{Transport: "http", Peer: r.RemoteAddr})
	resp := Exchange(ctx, handler, req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeResponse(w, http.StatusOK, resp)
}

func (h *HTTP) authorized(r *http.Request) bool {
	if h.token == "" {
		return true
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}

func writeResponse(w http.ResponseWriter, status int, resp *protocol.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(resp.Encode())
}

func writeJSON(w http.ResponseWriter, status int, v value.Value) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(value.Encode(v))
}
