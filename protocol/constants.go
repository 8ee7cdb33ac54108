package protocol

// MCP protocol version.
const MCPVersion = "2024-11-05"

// Method is a protocol method name.
type Method string

// MCP method names handled by the router.
const (
	MethodInitialize    Method = "initialize"
	MethodInitialized   Method = "notifications/initialized"
	MethodToolsList     Method = "tools/list"
	MethodToolsCall     Method = "tools/call"
	MethodResourcesList Method = "resources/list"
	MethodResourcesRead Method = "resources/read"
)

// MethodCancelled is the host-level notification used to cancel an in-flight
// request. Transports consume it; it never reaches the router.
const MethodCancelled Method = "notifications/cancelled"

// Methods lists every method the router answers.
var Methods = []Method{
	MethodInitialize,
	MethodInitialized,
	MethodToolsList,
	MethodToolsCall,
	MethodResourcesList,
	MethodResourcesRead,
}

// Known reports whether m is one of the router methods.
func (m Method) Known() bool {
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}
