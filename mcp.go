// Package mcp assembles a Swift workspace MCP server from its configuration:
// workspace providers, project memory, the middleware stack and the
// transport.
//
// Basic usage:
//
//	cfg, err := config.Load("swift-mcp.toml")
//	if err != nil {
//	    return err
//	}
//	app, err := mcp.New(ctx, cfg, mcp.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer app.Close()
//	return app.Serve(ctx)
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ClassicalDude/swift-mcp-server/config"
	"github.com/ClassicalDude/swift-mcp-server/memory"
	"github.com/ClassicalDude/swift-mcp-server/middleware"
	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/provider"
	"github.com/ClassicalDude/swift-mcp-server/server"
	"github.com/ClassicalDude/swift-mcp-server/transport"
	"github.com/ClassicalDude/swift-mcp-server/workspace"
)

// Re-exported for callers that only import the root package.
type (
	Middleware = middleware.Middleware
	Logger     = middleware.Logger
	Handler    = transport.Handler
)

// Option configures an App.
type Option func(*options)

type options struct {
	logger         Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	memory         provider.Memory
	transport      transport.Transport
	middleware     []Middleware
	now            func() time.Time
}

// WithLogger sets the logger shared by every component.
func WithLogger(l Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTracerProvider sets the tracer provider used when telemetry is enabled.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithMeterProvider sets the meter provider used when telemetry is enabled.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithMemory replaces the configured project memory store.
func WithMemory(m provider.Memory) Option {
	return func(o *options) {
		o.memory = m
	}
}

// WithTransport replaces the configured transport.
func WithTransport(t transport.Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithMiddleware appends middleware after the configured stack, closest to
// the router.
func WithMiddleware(m ...Middleware) Option {
	return func(o *options) {
		o.middleware = append(o.middleware, m...)
	}
}

// WithClock overrides the time source of the workspace and router.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// App is a configured server ready to serve one transport.
type App struct {
	cfg       config.Config
	logger    Logger
	workspace *workspace.Workspace
	server    *server.Server
	handler   middleware.HandlerFunc
	transport transport.Transport
	closers   []io.Closer
}

// New builds an App from cfg. The caller must Close it.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	o := &options{
		logger: middleware.NopLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	app := &App{cfg: *cfg, logger: o.logger}

	app.workspace = workspace.New(cfg.Workspace.Root,
		workspace.WithLogger(o.logger),
		workspace.WithClock(o.now),
	)

	mem := o.memory
	if mem == nil {
		var err error
		mem, err = openMemory(ctx, cfg.Memory, o.now)
		if err != nil {
			return nil, err
		}
		if c, ok := mem.(io.Closer); ok {
			app.closers = append(app.closers, c)
		}
	}

	app.server = server.New(
		server.WithWorkspaceRoot(app.workspace.Root()),
		server.WithLogger(o.logger),
		server.WithClock(o.now),
		server.WithSymbolSearch(app.workspace),
		server.WithProjectAnalyzer(app.workspace),
		server.WithDocumentation(app.workspace),
		server.WithFrameworkAnalyzer(app.workspace),
		server.WithTemplates(app.workspace),
		server.WithMemory(mem),
	)

	stack := append(Stack(cfg, o.logger, o.tracerProvider, o.meterProvider), o.middleware...)
	app.handler = middleware.Use(stack...).Then(app.server.HandleRequest)

	app.transport = o.transport
	if app.transport == nil {
		t, err := NewTransport(cfg, o.logger)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.transport = t
	}

	o.logger.Info("server configured",
		middleware.F("workspace", app.workspace.Root()),
		middleware.F("transport", cfg.Transport.Mode),
		middleware.F("memory", memoryKind(cfg.Memory)),
	)
	return app, nil
}

func openMemory(ctx context.Context, cfg config.MemoryConfig, now func() time.Time) (provider.Memory, error) {
	if cfg.DBPath == "" {
		return memory.NewInMemoryStore(), nil
	}
	store, err := memory.OpenSQLite(ctx, cfg.DBPath,
		memory.WithJournalMode(cfg.JournalMode),
		memory.WithStoreClock(now),
	)
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}
	return store, nil
}

func memoryKind(cfg config.MemoryConfig) string {
	if cfg.DBPath == "" {
		return "in-process"
	}
	return cfg.DBPath
}

// Stack returns the middleware every request runs through, outermost
// first: panic recovery, request IDs, the size limit, per-peer rate
// limiting, the request deadline, telemetry and logging. Stages whose
// limit is zero are left out.
func Stack(cfg *config.Config, logger Logger, tp trace.TracerProvider, mp metric.MeterProvider) []Middleware {
	if logger == nil {
		logger = middleware.NopLogger{}
	}
	stack := []Middleware{
		middleware.Recover(logger),
		middleware.RequestID(),
	}
	if cfg.Limits.MaxRequestBytes > 0 {
		stack = append(stack, middleware.SizeLimit(int64(cfg.Limits.MaxRequestBytes), middleware.WithSizeLimitLogger(logger)))
	}
	if cfg.Limits.RateLimit > 0 {
		stack = append(stack, middleware.RateLimitByPeer(cfg.Limits.RateLimit, cfg.Limits.RateBurst, middleware.WithRateLimitLogger(logger)))
	}
	if cfg.Limits.RequestTimeout.Duration > 0 {
		stack = append(stack, middleware.Timeout(cfg.Limits.RequestTimeout.Duration))
	}
	if cfg.Telemetry.Enabled {
		otelOpts := []middleware.OTelOption{
			middleware.WithOTelServiceName(cfg.Telemetry.ServiceName),
			middleware.WithOTelSkipMethods(protocol.MethodInitialized),
		}
		if tp != nil {
			otelOpts = append(otelOpts, middleware.WithTracerProvider(tp))
		}
		if mp != nil {
			otelOpts = append(otelOpts, middleware.WithMeterProvider(mp))
		}
		stack = append(stack, middleware.OTel(otelOpts...))
	}
	return append(stack, middleware.Logging(logger))
}

// NewTransport builds the transport selected by cfg.Transport.Mode.
func NewTransport(cfg *config.Config, logger Logger) (transport.Transport, error) {
	if logger == nil {
		logger = middleware.NopLogger{}
	}
	maxBytes := TransportLimit(cfg.Limits.MaxRequestBytes)
	shutdown := transport.DefaultShutdownConfig()
	if grace := cfg.Transport.ShutdownGrace.Duration; grace > 0 {
		shutdown.Timeout = grace
	}

	switch cfg.Transport.Mode {
	case config.ModeStdio:
		return transport.NewStdio(
			transport.WithStdioLogger(logger),
			transport.WithMaxMessageSize(maxBytes),
		), nil
	case config.ModeHTTP:
		opts := []transport.HTTPOption{
			transport.WithHTTPLogger(logger),
			transport.WithHTTPMaxMessageSize(int64(maxBytes)),
			transport.WithShutdownConfig(shutdown),
			transport.WithAllowedOrigins(cfg.Transport.AllowedOrigins),
		}
		if cfg.Transport.Token != "" {
			opts = append(opts, transport.WithBearerToken(cfg.Transport.Token))
		}
		return transport.NewHTTP(cfg.Transport.Addr, opts...), nil
	case config.ModeWebSocket:
		opts := []transport.WebSocketOption{
			transport.WithWebSocketLogger(logger),
			transport.WithWebSocketMaxMessageSize(int64(maxBytes)),
		}
		if len(cfg.Transport.AllowedOrigins) > 0 {
			opts = append(opts, transport.WithWebSocketAllowedOrigins(cfg.Transport.AllowedOrigins))
		}
		return transport.NewWebSocket(cfg.Transport.Addr, opts...), nil
	}
	return nil, fmt.Errorf("unknown transport mode %q", cfg.Transport.Mode)
}

// TransportLimit is the largest message a transport reads. It stays above
// maxRequestBytes so that oversized requests reach the size limit stage and
// are answered with their size; only far larger input is cut off by the
// transport itself.
func TransportLimit(maxRequestBytes int) int {
	limit := transport.DefaultMaxMessageSize
	if maxRequestBytes > 0 && 2*maxRequestBytes > limit {
		limit = 2 * maxRequestBytes
	}
	return limit
}

// Handler returns the router wrapped in the middleware stack.
func (a *App) Handler() Handler {
	return transport.HandlerFunc(a.handler)
}

// Server returns the router.
func (a *App) Server() *server.Server {
	return a.server
}

// Transport returns the transport Serve runs.
func (a *App) Transport() transport.Transport {
	return a.transport
}

// Serve runs the transport until ctx is cancelled or the input ends.
// Cancellation is a normal stop and yields nil.
func (a *App) Serve(ctx context.Context) error {
	a.logger.Info("serving", middleware.F("transport", a.transport.Addr()))
	err := a.transport.Serve(ctx, a.Handler())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the memory store.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewSlogLogger builds the process logger described by cfg, writing to w.
func NewSlogLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}
