// Package transport moves JSON-RPC messages between MCP clients and a
// Handler.
//
// Three transports are provided:
//
//   - Stdio reads one message per line from stdin and writes one response
//     per line to stdout. It is the transport editors launch.
//   - HTTP accepts one message per POST /mcp and answers in the response
//     body. GET /health reports liveness.
//   - WebSocket carries one message per text frame, with one Session per
//     connection.
//
// # Sessions
//
// Stdio and WebSocket share Session, which decodes messages, runs each
// request on its own goroutine and serialises writes. Responses may
// therefore arrive out of order; clients match them by id.
//
// A notifications/cancelled message cancels the context of the named
// in-flight request. A cancelled request is never answered.
//
// # Shutdown
//
// ShutdownManager counts in-flight requests. While it drains, new requests
// are refused with an internal error whose data carries
// {"reason": "shutting_down"}.
//
//	t := transport.NewStdio()
//	err := t.Serve(ctx, srv)
package transport
