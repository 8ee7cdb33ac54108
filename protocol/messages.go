package protocol

import (
	"strconv"

	"github.com/ClassicalDude/swift-mcp-server/value"
)

// JSONRPCVersion is the JSON-RPC protocol version.
const JSONRPCVersion = "2.0"

type idKind uint8

const (
	idAbsent idKind = iota
	idString
	idNumber
)

// RequestID is a JSON-RPC request id: a string, an integer, or absent.
type RequestID struct {
	kind idKind
	str  string
	num  int64
}

// AbsentID is the id of notifications and of undecodable messages.
var AbsentID = RequestID{}

// StringID returns a string request id.
func StringID(s string) RequestID { return RequestID{kind: idString, str: s} }

// NumberID returns a numeric request id.
func NumberID(n int64) RequestID { return RequestID{kind: idNumber, num: n} }

// IsAbsent reports whether the id is missing.
func (id RequestID) IsAbsent() bool { return id.kind == idAbsent }

// Value renders the id; an absent id renders as null.
func (id RequestID) Value() value.Value {
	switch id.kind {
	case idString:
		return value.String(id.str)
	case idNumber:
		return value.Int(id.num)
	default:
		return value.Null()
	}
}

// Key returns a string that uniquely identifies the id, distinguishing
// "1" from 1. Absent ids return "".
func (id RequestID) Key() string {
	switch id.kind {
	case idString:
		return "s:" + id.str
	case idNumber:
		return "n:" + strconv.FormatInt(id.num, 10)
	default:
		return ""
	}
}

func (id RequestID) String() string {
	return id.Value().String()
}

// ParseRequestID accepts string and integer ids; anything else is absent.
func ParseRequestID(v value.Value) RequestID {
	if s, ok := v.AsString(); ok {
		return StringID(s)
	}
	if n, ok := v.AsInt(); ok {
		return NumberID(n)
	}
	return AbsentID
}

// Request represents a JSON-RPC 2.0 request or notification.
type Request struct {
	ID     RequestID
	Method Method
	// Params is an object, or Null when the request carried none.
	Params value.Value
	// Size is the length in bytes of the raw message, when decoded from text.
	Size int
}

// NewRequest builds a request. Pass AbsentID for a notification.
func NewRequest(id RequestID, method Method, params value.Value) *Request {
	return &Request{ID: id, Method: method, Params: params}
}

// IsNotification returns true if this request has no ID (is a notification).
func (r *Request) IsNotification() bool {
	return r.ID.IsAbsent()
}

// Param returns the named member of params.
func (r *Request) Param(key string) (value.Value, bool) {
	return r.Params.Get(key)
}

// Value renders the request envelope.
func (r *Request) Value() value.Value {
	obj := map[string]value.Value{
		"jsonrpc": value.String(JSONRPCVersion),
		"method":  value.String(string(r.Method)),
	}
	if !r.ID.IsAbsent() {
		obj["id"] = r.ID.Value()
	}
	if !r.Params.IsNull() {
		obj["params"] = r.Params
	}
	return value.Object(obj)
}

// Encode renders the request as JSON text.
func (r *Request) Encode() []byte {
	return value.Encode(r.Value())
}

// DecodeRequest parses and validates a request envelope.
//
// On failure the returned request is still non-nil and carries whatever id
// could be recovered; text that is not JSON at all yields AbsentID.
func DecodeRequest(data []byte) (*Request, *Error) {
	req := &Request{Size: len(data)}

	env, err := value.Decode(data)
	if err != nil {
		return req, NewParseError()
	}
	if env.Kind() != value.KindObject {
		return req, NewInvalidRequest()
	}

	if idVal, ok := env.Get("id"); ok {
		req.ID = ParseRequestID(idVal)
	}

	version, _ := env.Get("jsonrpc")
	if v, ok := version.AsString(); !ok || v != JSONRPCVersion {
		return req, NewInvalidRequest()
	}

	methodVal, _ := env.Get("method")
	method, ok := methodVal.AsString()
	if !ok {
		return req, NewInvalidRequest()
	}
	req.Method = Method(method)

	if params, ok := env.Get("params"); ok && !params.IsNull() {
		if params.Kind() != value.KindObject {
			return req, NewInvalidRequest()
		}
		req.Params = params
	}

	return req, nil
}

// Response represents a JSON-RPC 2.0 response. Exactly one of result and
// error is set; the constructors are the only way to build one.
type Response struct {
	ID     RequestID
	result value.Value
	err    *Error
}

// NewResponse creates a successful response.
func NewResponse(id RequestID, result value.Value) *Response {
	return &Response{ID: id, result: result}
}

// NewErrorResponse creates an error response. A nil err becomes an internal error.
func NewErrorResponse(id RequestID, err *Error) *Response {
	if err == nil {
		err = NewInternalError()
	}
	return &Response{ID: id, err: err}
}

// Result returns the result, reporting false for error responses.
func (r *Response) Result() (value.Value, bool) {
	if r.err != nil {
		return value.Value{}, false
	}
	return r.result, true
}

// Err returns the error of an error response, or nil.
func (r *Response) Err() *Error {
	return r.err
}

// Value renders the response envelope.
func (r *Response) Value() value.Value {
	obj := map[string]value.Value{
		"jsonrpc": value.String(JSONRPCVersion),
		"id":      r.ID.Value(),
	}
	if r.err != nil {
		obj["error"] = r.err.Value()
	} else {
		obj["result"] = r.result
	}
	return value.Object(obj)
}

// Encode renders the response as JSON text.
func (r *Response) Encode() []byte {
	return value.Encode(r.Value())
}

// MarshalJSON implements json.Marshaler.
func (r *Response) MarshalJSON() ([]byte, error) {
	return r.Encode(), nil
}

// DecodeResponse parses a response envelope. It is used by clients and tests.
func DecodeResponse(data []byte) (*Response, error) {
	env, err := value.Decode(data)
	if err != nil {
		return nil, err
	}
	idVal, _ := env.Get("id")
	id := ParseRequestID(idVal)

	if errVal, ok := env.Get("error"); ok {
		mcpErr, ok := decodeError(errVal)
		if !ok {
			return nil, NewInvalidRequest()
		}
		return NewErrorResponse(id, mcpErr), nil
	}
	result, ok := env.Get("result")
	if !ok {
		return nil, NewInvalidRequest()
	}
	return NewResponse(id, result), nil
}

// Notification is a server-initiated message with no id and no response.
type Notification struct {
	Method Method
	Params value.Value
}

// Encode renders the notification as JSON text.
func (n *Notification) Encode() []byte {
	return NewRequest(AbsentID, n.Method, n.Params).Encode()
}
