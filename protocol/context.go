package protocol

import "context"

type originKey struct{}

// Origin describes where a request came from.
type Origin struct {
	// Transport is the transport name, e.g. "stdio" or "websocket".
	Transport string
	// Peer is the remote address for network transports.
	Peer string
}

// ContextWithOrigin returns a new context carrying the request origin.
func ContextWithOrigin(ctx context.Context, origin Origin) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

// OriginFromContext returns the request origin, if one was attached.
func OriginFromContext(ctx context.Context) (Origin, bool) {
	origin, ok := ctx.Value(originKey{}).(Origin)
	return origin, ok
}
