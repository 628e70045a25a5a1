package sse

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Event represents a server-sent event (streaming) message.
type Event struct {
	ID          string
	Event       string
	Data        string
	RetryMillis int
}

var (
	// sessionPathPattern matches the preferred announcement form, e.g.
	// "/sse?sessionId=<uuid>" or "/mcp?sessionId=<uuid>" — the full match
	// is the next request path, the capture group the bare id.
	sessionPathPattern = regexp.MustCompile(`(/(?:sse|mcp)\?sessionId=([A-Za-z0-9-]{8,}))`)
	// sessionLoosePattern matches a bare "sessionId=<hex-with-hyphens>"
	// fragment anywhere in the payload.
	sessionLoosePattern = regexp.MustCompile(`sessionId=([A-Za-z0-9-]{8,})`)
)

// isSessionAnnouncement reports whether data is a Legacy session
// announcement rather than a JSON-RPC frame, per §4.4.4.
func isSessionAnnouncement(data string) bool {
	return strings.HasPrefix(data, "/sse?sessionId=") || strings.HasPrefix(data, "/mcp?sessionId=")
}

// extractSessionPath returns the full next-request path announced by data,
// e.g. "/sse?sessionId=...", when data matches the preferred form.
func extractSessionPath(data string) (string, bool) {
	if m := sessionPathPattern.FindStringSubmatch(data); m != nil {
		return m[1], true
	}
	return "", false
}

// extractSessionID pulls a bare session id out of an SSE data payload,
// trying in order: the preferred path form, the loose query form, and a
// JSON object carrying a sessionId/session_id key.
func extractSessionID(data string) (string, bool) {
	if m := sessionPathPattern.FindStringSubmatch(data); m != nil {
		return m[2], true
	}
	if m := sessionLoosePattern.FindStringSubmatch(data); m != nil {
		return m[1], true
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(data), &obj); err == nil {
		if v, ok := obj["sessionId"].(string); ok {
			return v, true
		}
		if v, ok := obj["session_id"].(string); ok {
			return v, true
		}
	}
	return "", false
}
