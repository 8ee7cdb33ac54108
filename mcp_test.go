package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ClassicalDude/swift-mcp-server/config"
	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/testutil"
	"github.com/ClassicalDude/swift-mcp-server/transport"
	"github.com/ClassicalDude/swift-mcp-server/value"
)

var fixedTime = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "App.swift"), []byte("struct App {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Workspace.Root = root
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, opts ...Option) *App {
	t.Helper()
	app, err := New(context.Background(), cfg, append([]Option{WithClock(func() time.Time { return fixedTime })}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app
}

func callTool(id int64, name string, args map[string]value.Value) *protocol.Request {
	return protocol.NewRequest(protocol.NumberID(id), protocol.MethodToolsCall, value.Object(map[string]value.Value{
		"name":      value.String(name),
		"arguments": value.Object(args),
	}))
}

func toolText(t *testing.T, resp *protocol.Response) string {
	t.Helper()
	result, ok := resp.Result()
	if !ok {
		t.Fatalf("response has no result: %s", resp.Encode())
	}
	content, _ := result.Get("content")
	items, _ := content.AsArray()
	if len(items) != 1 {
		t.Fatalf("content = %s", content)
	}
	text, _ := items[0].Get("text")
	s, _ := text.AsString()
	return s
}

func TestNew(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	if _, ok := app.Transport().(*transport.Stdio); !ok {
		t.Errorf("Transport() = %T, want *transport.Stdio", app.Transport())
	}

	resp, err := app.Handler().HandleRequest(context.Background(), protocol.NewRequest(protocol.NumberID(1), protocol.MethodInitialize, value.EmptyObject()))
	if err != nil {
		t.Fatalf("initialize error = %v", err)
	}
	result, _ := resp.Result()
	info, _ := result.Get("serverInfo")
	name, _ := info.Get("name")
	if s, _ := name.AsString(); s != "swift-mcp-server" {
		t.Errorf("serverInfo.name = %s", name)
	}
}

func TestNew_NilConfig(t *testing.T) {
	app, err := New(context.Background(), nil)
	if err != nil {
		t.Fatalf("New(nil) error = %v", err)
	}
	defer app.Close()
	if app.Server() == nil {
		t.Error("Server() = nil")
	}
}

func TestApp_WorkspaceTools(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	ctx := context.Background()

	resp, err := app.Handler().HandleRequest(ctx, callTool(1, "detect_architecture", map[string]value.Value{
		"project_path": value.String("."),
	}))
	if err != nil {
		t.Fatalf("detect_architecture error = %v", err)
	}
	if got := toolText(t, resp); got != "Custom" {
		t.Errorf("detect_architecture = %q, want Custom", got)
	}

	_, err = app.Handler().HandleRequest(ctx, callTool(2, "analyze_project", map[string]value.Value{
		"project_path": value.String("missing"),
	}))
	if err == nil {
		t.Fatal("expected error for missing project")
	}
	if perr := protocol.FromError(err); perr.Code() != protocol.CodeResourceNotFound {
		t.Errorf("missing project: code = %d, want %d", perr.Code(), protocol.CodeResourceNotFound)
	}
}

func TestApp_SQLiteMemory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Memory.DBPath = filepath.Join(t.TempDir(), "memory", "swift-mcp.db")
	cfg.Memory.JournalMode = "delete"
	app := newTestApp(t, cfg)
	ctx := context.Background()

	for i, action := range []string{"cache", "retrieve"} {
		resp, err := app.Handler().HandleRequest(ctx, callTool(int64(i+1), "intelligent_project_memory", map[string]value.Value{
			"action": value.String(action),
			"key":    value.String("k1"),
		}))
		if err != nil {
			t.Fatalf("%s error = %v", action, err)
		}
		if text := toolText(t, resp); !strings.Contains(text, "k1") {
			t.Errorf("%s = %q", action, text)
		}
	}

	if _, err := os.Stat(cfg.Memory.DBPath); err != nil {
		t.Errorf("database file: %v", err)
	}
	if err := app.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := app.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestServe_Stdio(t *testing.T) {
	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":"two","method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"nope"}`,
		`not json`,
	}, "\n") + "\n"
	var out bytes.Buffer
	tr := transport.NewStdio(transport.WithStdin(strings.NewReader(input)), transport.WithStdout(&out))
	app := newTestApp(t, testConfig(t), WithTransport(tr))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Serve(ctx); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	codes := map[string]int{}
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		resp, err := protocol.DecodeResponse([]byte(line))
		if err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		code := 0
		if perr := resp.Err(); perr != nil {
			code = perr.Code()
		}
		codes[resp.ID.String()] = code
	}

	want := map[string]int{
		protocol.NumberID(1).String():     0,
		protocol.StringID("two").String(): 0,
		protocol.NumberID(3).String():     protocol.CodeMethodNotFound,
		protocol.AbsentID.String():        protocol.CodeParseError,
	}
	if len(codes) != len(want) {
		t.Fatalf("responses = %v, want %v", codes, want)
	}
	for id, code := range want {
		if got, ok := codes[id]; !ok || got != code {
			t.Errorf("response %s: code = %d (present %v), want %d", id, got, ok, code)
		}
	}
}

func TestServe_Cancelled(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	defer r.Close()

	tr := transport.NewStdio(transport.WithStdin(r), transport.WithStdout(&bytes.Buffer{}))
	app := newTestApp(t, testConfig(t), WithTransport(tr))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v, want nil on cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestStack(t *testing.T) {
	cfg := config.Default()
	if got := len(Stack(cfg, nil, nil, nil)); got != 4 {
		t.Errorf("default stack has %d stages, want 4", got)
	}

	cfg.Limits.RateLimit = 10
	cfg.Limits.RateBurst = 10
	cfg.Limits.RequestTimeout = config.Duration{Duration: time.Second}
	cfg.Telemetry.Enabled = true
	if got := len(Stack(cfg, nil, nil, nil)); got != 7 {
		t.Errorf("full stack has %d stages, want 7", got)
	}

	cfg = config.Default()
	cfg.Limits.MaxRequestBytes = 0
	if got := len(Stack(cfg, nil, nil, nil)); got != 3 {
		t.Errorf("stack without size limit has %d stages, want 3", got)
	}
}

func TestApp_Limits(t *testing.T) {
	t.Run("size limit", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Limits.MaxRequestBytes = 16
		app := newTestApp(t, cfg)

		req := protocol.NewRequest(protocol.NumberID(1), protocol.MethodToolsList, value.Null())
		req.Size = 64
		_, err := app.Handler().HandleRequest(context.Background(), req)
		if err == nil {
			t.Fatal("oversized request was accepted")
		}
		if code := protocol.FromError(err).Code(); code != protocol.CodeInvalidRequest {
			t.Errorf("code = %d, want %d", code, protocol.CodeInvalidRequest)
		}
	})

	t.Run("size limit over stdio", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Limits.MaxRequestBytes = 128
		app := newTestApp(t, cfg)
		pipe := testutil.NewStdioPipe(t, app.Handler(), transport.WithMaxMessageSize(TransportLimit(cfg.Limits.MaxRequestBytes)))

		pipe.Send(protocol.NewRequest(protocol.NumberID(1), protocol.MethodToolsCall, value.Object(map[string]value.Value{
			"name": value.String(strings.Repeat("x", 256)),
		})))
		resp := pipe.MustRecv()
		perr := resp.Err()
		if perr == nil || perr.Code() != protocol.CodeInvalidRequest || resp.ID != protocol.NumberID(1) {
			t.Fatalf("oversized request answered with %s", resp.Encode())
		}
		if limit, _ := perr.Data.Get("limit"); !limit.Equal(value.Int(128)) {
			t.Errorf("data = %s, want limit 128", perr.Data)
		}
		if _, ok := perr.Data.Get("size"); !ok {
			t.Errorf("data = %s, want size", perr.Data)
		}

		pipe.Send(protocol.NewRequest(protocol.NumberID(2), protocol.MethodToolsList, value.Null()))
		if next := pipe.MustRecv(); next.ID != protocol.NumberID(2) || next.Err() != nil {
			t.Errorf("following request answered with %s", next.Encode())
		}
	})

	t.Run("rate limit", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Limits.RateLimit = 1
		cfg.Limits.RateBurst = 1
		app := newTestApp(t, cfg)
		ctx := protocol.ContextWithOrigin(context.Background(), protocol.Origin{Transport: "http", Peer: "10.0.0.1:5000"})

		list := func(id int64) error {
			_, err := app.Handler().HandleRequest(ctx, protocol.NewRequest(protocol.NumberID(id), protocol.MethodToolsList, value.Null()))
			return err
		}
		if err := list(1); err != nil {
			t.Fatalf("first request error = %v", err)
		}
		err := list(2)
		if err == nil {
			t.Fatal("second request was not limited")
		}
		perr := protocol.FromError(err)
		reason, _ := perr.Data.Get("reason")
		if s, _ := reason.AsString(); perr.Code() != protocol.CodeInternalError || s != "rate_limited" {
			t.Errorf("second request error = %v (data %s), want rate_limited", err, perr.Data)
		}
	})
}

func TestTransportLimit(t *testing.T) {
	tests := []struct {
		maxRequest int
		want       int
	}{
		{0, transport.DefaultMaxMessageSize},
		{1 << 20, transport.DefaultMaxMessageSize},
		{4 << 20, 8 << 20},
	}
	for _, tt := range tests {
		if got := TransportLimit(tt.maxRequest); got != tt.want {
			t.Errorf("TransportLimit(%d) = %d, want %d", tt.maxRequest, got, tt.want)
		}
	}
}

func TestNewTransport(t *testing.T) {
	tests := []struct {
		mode string
		want string
	}{
		{config.ModeStdio, "*transport.Stdio"},
		{config.ModeHTTP, "*transport.HTTP"},
		{config.ModeWebSocket, "*transport.WebSocket"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := config.Default()
			cfg.Transport.Mode = tt.mode
			cfg.Transport.Token = "secret"
			cfg.Transport.AllowedOrigins = []string{"https://example.com"}
			tr, err := NewTransport(cfg, nil)
			if err != nil {
				t.Fatalf("NewTransport() error = %v", err)
			}
			if got := typeName(tr); got != tt.want {
				t.Errorf("transport = %s, want %s", got, tt.want)
			}
		})
	}

	cfg := config.Default()
	cfg.Transport.Mode = "carrier-pigeon"
	if _, err := NewTransport(cfg, nil); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func typeName(tr transport.Transport) string {
	switch tr.(type) {
	case *transport.Stdio:
		return "*transport.Stdio"
	case *transport.HTTP:
		return "*transport.HTTP"
	case *transport.WebSocket:
		return "*transport.WebSocket"
	}
	return "unknown"
}

func TestNewSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "tool", "find_symbols")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("log lines = %q, want one", lines)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "shown" || entry["tool"] != "find_symbols" {
		t.Errorf("entry = %v", entry)
	}

	buf.Reset()
	NewSlogLogger(config.LoggingConfig{Level: "debug", Format: "text"}, &buf).Debug("visible")
	if !strings.Contains(buf.String(), "msg=visible") {
		t.Errorf("text log = %q", buf.String())
	}
}
