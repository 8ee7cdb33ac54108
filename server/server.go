package server

import (
	"context"
	"time"

	"github.com/ClassicalDude/swift-mcp-server/middleware"
	"github.com/ClassicalDude/swift-mcp-server/position"
	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/provider"
)

// Info contains server metadata exposed to clients.
type Info struct {
	Name    string
	Version string
}

// DefaultInfo is the identity reported by initialize.
var DefaultInfo = Info{Name: "swift-mcp-server", Version: "1.0.0"}

// Option configures a Server.
type Option func(*Server)

// Server routes protocol requests to handlers and providers.
//
// A Server is immutable after New and safe for concurrent use.
type Server struct {
	info     Info
	resolver *position.Resolver
	logger   middleware.Logger
	now      func() time.Time

	symbols    provider.SymbolSearch
	projects   provider.ProjectAnalyzer
	memory     provider.Memory
	docs       provider.Documentation
	frameworks provider.FrameworkAnalyzer
	templates  provider.Templates
}

// WithWorkspaceRoot sets the directory relative file paths resolve against.
func WithWorkspaceRoot(root string) Option {
	return func(s *Server) {
		s.resolver.Root = root
	}
}

// WithLogger sets the logger for handler diagnostics.
func WithLogger(l middleware.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithClock overrides the time source used for memory records.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithSymbolSearch sets the symbol search provider.
func WithSymbolSearch(p provider.SymbolSearch) Option {
	return func(s *Server) {
		s.symbols = p
	}
}

// WithProjectAnalyzer sets the project analysis provider.
func WithProjectAnalyzer(p provider.ProjectAnalyzer) Option {
	return func(s *Server) {
		s.projects = p
	}
}

// WithMemory sets the project memory provider.
func WithMemory(p provider.Memory) Option {
	return func(s *Server) {
		s.memory = p
	}
}

// WithDocumentation sets the documentation provider.
func WithDocumentation(p provider.Documentation) Option {
	return func(s *Server) {
		s.docs = p
	}
}

// WithFrameworkAnalyzer sets the iOS framework analysis provider.
func WithFrameworkAnalyzer(p provider.FrameworkAnalyzer) Option {
	return func(s *Server) {
		s.frameworks = p
	}
}

// WithTemplates sets the template provider.
func WithTemplates(p provider.Templates) Option {
	return func(s *Server) {
		s.templates = p
	}
}

// New creates a server. Tools whose provider is not configured answer with
// an internal error.
func New(opts ...Option) *Server {
	s := &Server{
		info:     DefaultInfo,
		resolver: position.NewResolver(""),
		logger:   middleware.NopLogger{},
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}
	s.resolver.Logger = s.logger

	return s
}

// Info returns the server info.
func (s *Server) Info() Info {
	return s.info
}

// HandleRequest routes req to its method handler.
//
// Failures are returned as *protocol.Error. When ctx is cancelled while a
// provider is running, the context error is returned instead and callers
// should not answer the request.
func (s *Server) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	handle, ok := methodHandlers[req.Method]
	if !ok {
		return nil, protocol.NewMethodNotFound(string(req.Method))
	}

	result, err := handle(s, ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, protocol.FromError(err)
	}
	return protocol.NewResponse(req.ID, result), nil
}
