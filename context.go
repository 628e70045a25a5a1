package jsonrpc

// ctxKey is an unexported type to avoid collisions with context keys
// defined in other packages.
type ctxKey int

const (
	sessionKey ctxKey = iota
)

// SessionKey is the context key under which an HTTP-transport session id
// (Mcp-Session-Id / sessionId query parameter) is stashed by a transport so
// that downstream logging and interceptors can observe it.
var SessionKey interface{} = sessionKey

// Listener observes every frame a transport sends or receives, independent
// of the interceptor chain. It is intended for passive diagnostics (wire
// logging, test fixtures) and must not mutate message.
type Listener func(message *Message)
