// Package server routes protocol requests to the Swift analysis tools.
//
// A Server holds the fixed tool and resource catalogs and references to the
// providers that do the actual work. It is built once and is safe for
// concurrent use:
//
//	srv := server.New(
//	    server.WithWorkspaceRoot("/path/to/project"),
//	    server.WithSymbolSearch(index),
//	    server.WithMemory(memory.NewInMemoryStore()),
//	)
//	resp, err := srv.HandleRequest(ctx, req)
//
// # Methods
//
// HandleRequest answers initialize, notifications/initialized, tools/list,
// tools/call, resources/list and resources/read. Any other method yields a
// method-not-found error.
//
// # Tools
//
// Tool arguments are validated against the tool's input schema before the
// handler runs. Tools whose provider was not configured, and providers that
// fail for reasons other than a recognised absence, answer with an internal
// error; the cause is logged, not returned.
//
// # Cancellation
//
// Provider calls run on their own goroutine. When the request context ends
// first, HandleRequest returns the context error and the caller must not send
// a response.
package server
