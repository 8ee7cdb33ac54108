package protocol

import (
	"errors"
	"fmt"

	"github.com/ClassicalDude/swift-mcp-server/value"
)

// Kind is one of the closed set of protocol error kinds.
type Kind int

const (
	KindParseError Kind = iota
	KindInvalidRequest
	KindMethodNotFound
	KindInvalidParams
	KindInternalError
	KindToolNotFound
	KindResourceNotFound
)

// JSON-RPC 2.0 and MCP error codes.
const (
	CodeParseError       = -32700
	CodeInvalidRequest   = -32600
	CodeMethodNotFound   = -32601
	CodeInvalidParams    = -32602
	CodeInternalError    = -32603
	CodeToolNotFound     = -32001
	CodeResourceNotFound = -32002
)

// Code returns the wire code for k.
func (k Kind) Code() int {
	switch k {
	case KindParseError:
		return CodeParseError
	case KindInvalidRequest:
		return CodeInvalidRequest
	case KindMethodNotFound:
		return CodeMethodNotFound
	case KindInvalidParams:
		return CodeInvalidParams
	case KindToolNotFound:
		return CodeToolNotFound
	case KindResourceNotFound:
		return CodeResourceNotFound
	default:
		return CodeInternalError
	}
}

func (k Kind) String() string {
	switch k {
	case KindParseError:
		return "ParseError"
	case KindInvalidRequest:
		return "InvalidRequest"
	case KindMethodNotFound:
		return "MethodNotFound"
	case KindInvalidParams:
		return "InvalidParams"
	case KindToolNotFound:
		return "ToolNotFound"
	case KindResourceNotFound:
		return "ResourceNotFound"
	default:
		return "InternalError"
	}
}

// KindFromCode maps a wire code back to its kind.
func KindFromCode(code int) (Kind, bool) {
	for k := KindParseError; k <= KindResourceNotFound; k++ {
		if k.Code() == code {
			return k, true
		}
	}
	return KindInternalError, false
}

// Error represents a JSON-RPC 2.0 error.
type Error struct {
	Kind    Kind
	Message string
	// Data is optional structured detail; Null means absent.
	Data value.Value
}

// Code returns the wire code of the error.
func (e *Error) Code() int {
	return e.Kind.Code()
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("mcp: %s (code: %d)", e.Message, e.Code())
}

// Is implements errors.Is comparison by error code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithData returns a copy of the error with additional data attached.
func (e *Error) WithData(data value.Value) *Error {
	return &Error{
		Kind:    e.Kind,
		Message: e.Message,
		Data:    data,
	}
}

// Value renders the error object.
func (e *Error) Value() value.Value {
	obj := map[string]value.Value{
		"code":    value.Int(int64(e.Code())),
		"message": value.String(e.Message),
	}
	if !e.Data.IsNull() {
		obj["data"] = e.Data
	}
	return value.Object(obj)
}

// NewParseError creates a parse error (-32700).
func NewParseError() *Error {
	return &Error{Kind: KindParseError, Message: "Parse error"}
}

// NewInvalidRequest creates an invalid request error (-32600).
func NewInvalidRequest() *Error {
	return &Error{Kind: KindInvalidRequest, Message: "Invalid Request"}
}

// NewMethodNotFound creates a method not found error (-32601).
func NewMethodNotFound(method string) *Error {
	return &Error{Kind: KindMethodNotFound, Message: "Method not found: " + method}
}

// NewInvalidParams creates an invalid params error (-32602).
func NewInvalidParams() *Error {
	return &Error{Kind: KindInvalidParams, Message: "Invalid params"}
}

// NewInternalError creates an internal error (-32603).
func NewInternalError() *Error {
	return &Error{Kind: KindInternalError, Message: "Internal error"}
}

// NewToolNotFound creates a tool not found error (-32001).
func NewToolNotFound(name string) *Error {
	return &Error{Kind: KindToolNotFound, Message: "Tool not found: " + name}
}

// NewResourceNotFound creates a resource not found error (-32002).
func NewResourceNotFound(uri string) *Error {
	return &Error{Kind: KindResourceNotFound, Message: "Resource not found: " + uri}
}

// FromError maps err onto the taxonomy. A wrapped *Error is returned as is;
// anything else becomes an internal error without exposing its text.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var mcpErr *Error
	if errors.As(err, &mcpErr) {
		return mcpErr
	}
	return NewInternalError()
}

// decodeError rebuilds an Error from its wire form.
func decodeError(v value.Value) (*Error, bool) {
	codeVal, _ := v.Get("code")
	code, ok := codeVal.AsInt()
	if !ok {
		return nil, false
	}
	kind, _ := KindFromCode(int(code))
	msgVal, _ := v.Get("message")
	msg, _ := msgVal.AsString()
	data, _ := v.Get("data")
	return &Error{Kind: kind, Message: msg, Data: data}, true
}
