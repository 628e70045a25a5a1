package sse

import "strings"

// Dialect is the wire dialect an HTTP+SSE connection speaks, fixed for the
// session's lifetime once detected at construction time (§4.4.1).
type Dialect string

const (
	// DialectModern is the 2025-03-26 Streamable-over-SSE dialect: POST
	// every frame, carry the session in the Mcp-Session-Id header.
	DialectModern Dialect = "modern"
	// DialectLegacy is the 2024-11-05 dialect: session carried as a query
	// parameter discovered out-of-band over a long-lived GET stream.
	DialectLegacy Dialect = "legacy"
)

// detectDialect applies the endpoint path rule: "/mcp" is Modern, "/sse"
// is Legacy, anything else defaults to Modern. The second return value
// reports whether the path matched a known dialect, so the caller can log
// a warning when it had to fall back to the default.
func detectDialect(rawPath string) (Dialect, bool) {
	switch {
	case strings.HasSuffix(rawPath, "/sse"):
		return DialectLegacy, true
	case strings.HasSuffix(rawPath, "/mcp"):
		return DialectModern, true
	default:
		return DialectModern, false
	}
}
