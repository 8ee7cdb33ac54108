// Package testutil provides helpers for exercising a server in tests.
//
// TestClient drives a handler in process, the way a transport would.
// StdioPipe runs the real stdio transport over pipes for wire-level tests.
//
// Example usage:
//
//	func TestFindSymbols(t *testing.T) {
//	    app, _ := mcp.New(ctx, cfg)
//	    tc := testutil.NewTestClient(t, app.Handler())
//
//	    text, err := tc.CallTool("find_symbols", map[string]value.Value{
//	        "file_path":    value.String("Sources/App.swift"),
//	        "name_pattern": value.String("App*"),
//	    })
//	    ...
//	}
package testutil

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/transport"
	"github.com/ClassicalDude/swift-mcp-server/value"
)

// TestClient sends requests straight to a handler.
type TestClient struct {
	t       testing.TB
	handler transport.Handler
	reqID   atomic.Int64
	origin  protocol.Origin
}

// ClientOption configures a TestClient.
type ClientOption func(*TestClient)

// WithOrigin sets the origin attached to every request.
func WithOrigin(o protocol.Origin) ClientOption {
	return func(tc *TestClient) {
		tc.origin = o
	}
}

// NewTestClient creates a client for handler and performs the initialize
// handshake.
func NewTestClient(t testing.TB, handler transport.Handler, opts ...ClientOption) *TestClient {
	t.Helper()
	tc := NewTestClientWithoutInit(t, handler, opts...)
	if _, err := tc.Initialize(); err != nil {
		t.Fatalf("failed to initialize server: %v", err)
	}
	return tc
}

// NewTestClientWithoutInit creates a client that skips the handshake.
func NewTestClientWithoutInit(t testing.TB, handler transport.Handler, opts ...ClientOption) *TestClient {
	tc := &TestClient{
		t:       t,
		handler: handler,
		origin:  protocol.Origin{Transport: "test"},
	}
	for _, opt := range opts {
		opt(tc)
	}
	return tc
}

// Send runs req and returns what a transport would write back, or nil for
// notifications.
func (tc *TestClient) Send(ctx context.Context, req *protocol.Request) *protocol.Response {
	tc.t.Helper()
	ctx = protocol.ContextWithOrigin(ctx, tc.origin)
	return transport.Exchange(ctx, tc.handler, req)
}

// Request sends a request with the next numeric id. A protocol error in the
// response is returned as the error.
func (tc *TestClient) Request(method protocol.Method, params value.Value) (value.Value, error) {
	tc.t.Helper()
	req := protocol.NewRequest(protocol.NumberID(tc.reqID.Add(1)), method, params)
	resp := tc.Send(context.Background(), req)
	if resp == nil {
		return value.Null(), fmt.Errorf("no response to %s", method)
	}
	if perr := resp.Err(); perr != nil {
		return value.Null(), perr
	}
	result, _ := resp.Result()
	return result, nil
}

// Notify sends a notification.
func (tc *TestClient) Notify(method protocol.Method, params value.Value) {
	tc.t.Helper()
	if resp := tc.Send(context.Background(), protocol.NewRequest(protocol.AbsentID, method, params)); resp != nil {
		tc.t.Errorf("notification %s was answered: %s", method, resp.Encode())
	}
}

// Initialize performs the initialize handshake.
func (tc *TestClient) Initialize() (value.Value, error) {
	tc.t.Helper()
	result, err := tc.Request(protocol.MethodInitialize, value.Object(map[string]value.Value{
		"protocolVersion": value.String(protocol.MCPVersion),
		"clientInfo": value.Object(map[string]value.Value{
			"name":    value.String("test-client"),
			"version": value.String("1.0.0"),
		}),
	}))
	if err != nil {
		return value.Null(), err
	}
	tc.Notify(protocol.MethodInitialized, value.Null())
	return result, nil
}

// ListTools returns the advertised tool names in catalog order.
func (tc *TestClient) ListTools() ([]string, error) {
	tc.t.Helper()
	result, err := tc.Request(protocol.MethodToolsList, value.Null())
	if err != nil {
		return nil, err
	}
	return names(result, "tools", "name")
}

// CallTool calls a tool and returns the text of its single content item.
func (tc *TestClient) CallTool(name string, args map[string]value.Value) (string, error) {
	tc.t.Helper()
	params := map[string]value.Value{"name": value.String(name)}
	if args != nil {
		params["arguments"] = value.Object(args)
	}
	result, err := tc.Request(protocol.MethodToolsCall, value.Object(params))
	if err != nil {
		return "", err
	}
	return firstText(result, "content")
}

// ListResources returns the advertised resource URIs.
func (tc *TestClient) ListResources() ([]string, error) {
	tc.t.Helper()
	result, err := tc.Request(protocol.MethodResourcesList, value.Null())
	if err != nil {
		return nil, err
	}
	return names(result, "resources", "uri")
}

// ReadResource returns the text of the resource at uri.
func (tc *TestClient) ReadResource(uri string) (string, error) {
	tc.t.Helper()
	result, err := tc.Request(protocol.MethodResourcesRead, value.Object(map[string]value.Value{
		"uri": value.String(uri),
	}))
	if err != nil {
		return "", err
	}
	return firstText(result, "contents")
}

// AssertToolExists fails the test unless the server lists name.
func (tc *TestClient) AssertToolExists(name string) {
	tc.t.Helper()
	tools, err := tc.ListTools()
	if err != nil {
		tc.t.Fatalf("tools/list: %v", err)
	}
	for _, tool := range tools {
		if tool == name {
			return
		}
	}
	tc.t.Errorf("tool %q not found in %v", name, tools)
}

// AssertErrorCode fails the test unless err is a protocol error with code.
func AssertErrorCode(t testing.TB, err error, code int) {
	t.Helper()
	if err == nil {
		t.Errorf("expected error code %d, got success", code)
		return
	}
	if got := protocol.FromError(err).Code(); got != code {
		t.Errorf("error code = %d, want %d (%v)", got, code, err)
	}
}

func names(result value.Value, list, key string) ([]string, error) {
	v, _ := result.Get(list)
	items, ok := v.AsArray()
	if !ok {
		return nil, fmt.Errorf("%s is %s, want array", list, v.Kind())
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		k, _ := item.Get(key)
		s, ok := k.AsString()
		if !ok {
			return nil, fmt.Errorf("%s entry without %s: %s", list, key, item)
		}
		out = append(out, s)
	}
	return out, nil
}

func firstText(result value.Value, list string) (string, error) {
	v, _ := result.Get(list)
	items, ok := v.AsArray()
	if !ok || len(items) == 0 {
		return "", fmt.Errorf("%s is empty", list)
	}
	text, _ := items[0].Get("text")
	s, ok := text.AsString()
	if !ok {
		return "", fmt.Errorf("%s[0] has no text", list)
	}
	return s, nil
}

// StdioPipe runs a stdio transport over in-memory pipes.
type StdioPipe struct {
	t         testing.TB
	in        *io.PipeWriter
	responses chan *protocol.Response
	done      chan error
	cancel    context.CancelFunc
	closeOnce sync.Once
	malformed atomic.Int64
}

// NewStdioPipe starts serving handler over a stdio transport. The pipe is
// closed when the test ends.
func NewStdioPipe(t testing.TB, handler transport.Handler, opts ...transport.StdioOption) *StdioPipe {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	p := &StdioPipe{
		t:         t,
		in:        inW,
		responses: make(chan *protocol.Response, 64),
		done:      make(chan error, 1),
		cancel:    cancel,
	}

	tr := transport.NewStdio(append([]transport.StdioOption{
		transport.WithStdin(inR),
		transport.WithStdout(outW),
	}, opts...)...)

	go func() {
		err := tr.Serve(ctx, handler)
		outW.Close()
		p.done <- err
	}()

	go func() {
		defer close(p.responses)
		scanner := bufio.NewScanner(outR)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			resp, err := protocol.DecodeResponse(scanner.Bytes())
			if err != nil {
				p.malformed.Add(1)
				continue
			}
			p.responses <- resp
		}
	}()

	t.Cleanup(func() { p.Close() })
	return p
}

// Write sends one raw line.
func (p *StdioPipe) Write(line string) {
	p.t.Helper()
	if _, err := io.WriteString(p.in, line+"\n"); err != nil {
		p.t.Fatalf("write: %v", err)
	}
}

// Send writes req as one line.
func (p *StdioPipe) Send(req *protocol.Request) {
	p.t.Helper()
	p.Write(string(req.Encode()))
}

// Recv waits up to timeout for the next response.
func (p *StdioPipe) Recv(timeout time.Duration) (*protocol.Response, bool) {
	select {
	case resp, ok := <-p.responses:
		return resp, ok
	case <-time.After(timeout):
		return nil, false
	}
}

// MustRecv is Recv that fails the test on timeout.
func (p *StdioPipe) MustRecv() *protocol.Response {
	p.t.Helper()
	resp, ok := p.Recv(5 * time.Second)
	if !ok {
		p.t.Fatal("timed out waiting for a response")
	}
	return resp
}

// Malformed returns how many output lines were not valid responses.
func (p *StdioPipe) Malformed() int {
	return int(p.malformed.Load())
}

// CloseInput ends the input stream and returns what Serve returned.
func (p *StdioPipe) CloseInput() error {
	p.in.Close()
	select {
	case err := <-p.done:
		p.done <- err
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("stdio transport did not stop after end of input")
	}
}

// Close stops the transport.
func (p *StdioPipe) Close() {
	p.closeOnce.Do(func() {
		p.cancel()
		p.in.Close()
	})
}
