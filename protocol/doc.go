// Package protocol defines the JSON-RPC 2.0 envelope and the closed error
// taxonomy of the Swift MCP server.
//
// # Messages
//
// Requests and responses carry their payloads as value.Value trees:
//
//	req, perr := protocol.DecodeRequest(line)
//	resp := protocol.NewResponse(req.ID, result)
//	out := resp.Encode()
//
// DecodeRequest always returns a request; when it also returns an error the
// request carries whatever id could be recovered from the input, so the
// error response can be correlated.
//
// # Error Codes
//
// Every error a client can observe is one of seven kinds:
//
//	CodeParseError       = -32700  // Parse error
//	CodeInvalidRequest   = -32600  // Invalid Request
//	CodeMethodNotFound   = -32601  // Method not found: <method>
//	CodeInvalidParams    = -32602  // Invalid params
//	CodeInternalError    = -32603  // Internal error
//	CodeToolNotFound     = -32001  // Tool not found: <name>
//	CodeResourceNotFound = -32002  // Resource not found: <uri>
//
// Messages are fixed per kind. Extra detail goes in Data:
//
//	err := protocol.NewInvalidParams().WithData(details)
//
// FromError maps any other Go error to an internal error.
package protocol
