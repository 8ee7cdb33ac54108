package protocol

import (
	"context"
	"testing"

	"github.com/ClassicalDude/swift-mcp-server/value"
)

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantID     RequestID
		wantMethod Method
		wantParams string
	}{
		{
			name:       "request with params",
			input:      `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search"}}`,
			wantID:     NumberID(1),
			wantMethod: MethodToolsCall,
			wantParams: `{"name":"search"}`,
		},
		{
			name:       "string id without params",
			input:      `{"jsonrpc":"2.0","id":"abc-123","method":"tools/list"}`,
			wantID:     StringID("abc-123"),
			wantMethod: MethodToolsList,
			wantParams: `null`,
		},
		{
			name:       "notification",
			input:      `{"jsonrpc":"2.0","method":"notifications/initialized"}`,
			wantID:     AbsentID,
			wantMethod: MethodInitialized,
			wantParams: `null`,
		},
		{
			name:       "explicit null params",
			input:      `{"jsonrpc":"2.0","id":2,"method":"initialize","params":null}`,
			wantID:     NumberID(2),
			wantMethod: MethodInitialize,
			wantParams: `null`,
		},
		{
			name:       "unknown method still decodes",
			input:      `{"jsonrpc":"2.0","id":3,"method":"foo/bar"}`,
			wantID:     NumberID(3),
			wantMethod: "foo/bar",
			wantParams: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, perr := DecodeRequest([]byte(tt.input))
			if perr != nil {
				t.Fatalf("unexpected error: %v", perr)
			}
			if req.ID != tt.wantID {
				t.Errorf("ID = %v, want %v", req.ID, tt.wantID)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method = %q, want %q", req.Method, tt.wantMethod)
			}
			if got := req.Params.String(); got != tt.wantParams {
				t.Errorf("Params = %s, want %s", got, tt.wantParams)
			}
			if req.Size != len(tt.input) {
				t.Errorf("Size = %d, want %d", req.Size, len(tt.input))
			}
		})
	}
}

func TestDecodeRequest_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind Kind
		wantID   RequestID
	}{
		{name: "not json", input: `{invalid}`, wantKind: KindParseError, wantID: AbsentID},
		{name: "empty", input: ``, wantKind: KindParseError, wantID: AbsentID},
		{name: "not an object", input: `[1,2]`, wantKind: KindInvalidRequest, wantID: AbsentID},
		{name: "missing jsonrpc keeps id", input: `{"id":5,"method":"initialize"}`, wantKind: KindInvalidRequest, wantID: NumberID(5)},
		{name: "wrong version", input: `{"jsonrpc":"1.0","id":"a","method":"initialize"}`, wantKind: KindInvalidRequest, wantID: StringID("a")},
		{name: "missing method", input: `{"jsonrpc":"2.0","id":6}`, wantKind: KindInvalidRequest, wantID: NumberID(6)},
		{name: "method not a string", input: `{"jsonrpc":"2.0","id":7,"method":3}`, wantKind: KindInvalidRequest, wantID: NumberID(7)},
		{name: "array params", input: `{"jsonrpc":"2.0","id":8,"method":"tools/call","params":[1]}`, wantKind: KindInvalidRequest, wantID: NumberID(8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, perr := DecodeRequest([]byte(tt.input))
			if perr == nil {
				t.Fatal("expected error, got nil")
			}
			if perr.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", perr.Kind, tt.wantKind)
			}
			if req == nil {
				t.Fatal("request should be non-nil on error")
			}
			if req.ID != tt.wantID {
				t.Errorf("ID = %v, want %v", req.ID, tt.wantID)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	if NumberID(1).Key() == StringID("1").Key() {
		t.Error("numeric and string ids must have distinct keys")
	}
	if AbsentID.Key() != "" {
		t.Errorf("AbsentID.Key() = %q, want empty", AbsentID.Key())
	}
	if got := AbsentID.String(); got != "null" {
		t.Errorf("AbsentID.String() = %q, want null", got)
	}
	if got := StringID("x").String(); got != `"x"` {
		t.Errorf("StringID.String() = %q", got)
	}
}

func TestResponse_Encode(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
		want string
	}{
		{
			name: "success",
			resp: NewResponse(NumberID(1), value.Object(map[string]value.Value{"tools": value.Array()})),
			want: `{"id":1,"jsonrpc":"2.0","result":{"tools":[]}}`,
		},
		{
			name: "error with string id",
			resp: NewErrorResponse(StringID("r"), NewMethodNotFound("x")),
			want: `{"error":{"code":-32601,"message":"Method not found: x"},"id":"r","jsonrpc":"2.0"}`,
		},
		{
			name: "absent id renders null",
			resp: NewErrorResponse(AbsentID, NewParseError()),
			want: `{"error":{"code":-32700,"message":"Parse error"},"id":null,"jsonrpc":"2.0"}`,
		},
		{
			name: "nil error becomes internal",
			resp: NewErrorResponse(NumberID(2), nil),
			want: `{"error":{"code":-32603,"message":"Internal error"},"id":2,"jsonrpc":"2.0"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(tt.resp.Encode()); got != tt.want {
				t.Errorf("Encode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResponse_ResultOrError(t *testing.T) {
	ok := NewResponse(NumberID(1), value.Bool(true))
	if _, has := ok.Result(); !has || ok.Err() != nil {
		t.Error("success response should have result and no error")
	}

	bad := NewErrorResponse(NumberID(1), NewInvalidParams())
	if _, has := bad.Result(); has || bad.Err() == nil {
		t.Error("error response should have error and no result")
	}
}

func TestDecodeResponse(t *testing.T) {
	resp := NewErrorResponse(StringID("q"), NewToolNotFound("t").WithData(value.String("d")))
	got, err := DecodeResponse(resp.Encode())
	if err != nil {
		t.Fatalf("DecodeResponse() error: %v", err)
	}
	if got.ID != StringID("q") {
		t.Errorf("ID = %v", got.ID)
	}
	if got.Err() == nil || got.Err().Kind != KindToolNotFound {
		t.Fatalf("Err() = %v, want ToolNotFound", got.Err())
	}
	if s, _ := got.Err().Data.AsString(); s != "d" {
		t.Errorf("Data = %s", got.Err().Data)
	}
}

func TestRequest_Encode(t *testing.T) {
	req := NewRequest(NumberID(4), MethodResourcesRead, value.Object(map[string]value.Value{
		"uri": value.String("swift://workspace"),
	}))
	decoded, perr := DecodeRequest(req.Encode())
	if perr != nil {
		t.Fatalf("DecodeRequest() error: %v", perr)
	}
	if decoded.ID != req.ID || decoded.Method != req.Method || !decoded.Params.Equal(req.Params) {
		t.Errorf("decoded = %+v, want %+v", decoded, req)
	}

	note := &Notification{Method: MethodInitialized}
	if got := string(note.Encode()); got != `{"jsonrpc":"2.0","method":"notifications/initialized"}` {
		t.Errorf("Notification.Encode() = %s", got)
	}
}

func TestMethod_Known(t *testing.T) {
	for _, m := range Methods {
		if !m.Known() {
			t.Errorf("%s should be known", m)
		}
	}
	if Method("prompts/list").Known() {
		t.Error("prompts/list should not be known")
	}
	if MethodCancelled.Known() {
		t.Error("cancellation is handled by transports, not the router")
	}
}

func TestOrigin(t *testing.T) {
	if _, ok := OriginFromContext(context.Background()); ok {
		t.Error("empty context should have no origin")
	}
	ctx := ContextWithOrigin(context.Background(), Origin{Transport: "stdio"})
	origin, ok := OriginFromContext(ctx)
	if !ok || origin.Transport != "stdio" {
		t.Errorf("OriginFromContext() = %+v, %v", origin, ok)
	}
}

func TestParseRequestID(t *testing.T) {
	tests := []struct {
		name string
		in   value.Value
		want RequestID
	}{
		{"string", value.String("abc"), StringID("abc")},
		{"integer", value.Int(7), NumberID(7)},
		{"null", value.Null(), AbsentID},
		{"fractional", value.Float(1.5), AbsentID},
		{"object", value.EmptyObject(), AbsentID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseRequestID(tt.in); got != tt.want {
				t.Errorf("ParseRequestID(%s) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
