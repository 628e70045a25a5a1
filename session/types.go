package session

import (
	"time"

	"github.com/flowmesh-io/mcpproxy/mcp"
)

// ProtocolVersion is one of the two MCP wire dialects this session can
// negotiate, or a custom value a server reports back. It is the same type
// mcp uses to carry the dialect on the wire, so a session's negotiated
// version can be compared directly against mcp.ProtocolVersionLegacy/Modern.
type ProtocolVersion = mcp.ProtocolVersion

const (
	ProtocolLegacy  = mcp.ProtocolVersionLegacy
	ProtocolModern  = mcp.ProtocolVersionModern
	DefaultProtocol = ProtocolModern
)

// ServerInfo is captured from a successful initialize response.
type ServerInfo struct {
	Implementation  mcp.Implementation
	ProtocolVersion ProtocolVersion
	Capabilities    mcp.Capabilities
	ConnectedAt     time.Time
}

// Stats mirrors spec.md's session-level counters, distinct from a
// transport's own Info/Counters: these count at the session's request
// granularity, including retries, which a transport does not know about.
type Stats struct {
	RequestsSent       uint64
	ResponsesReceived  uint64
	NotificationsSent  uint64
	NotificationsRecvd uint64
	Errors             uint64
	Retries            uint64
	ConnectionAttempts uint64
	LastActivity       *time.Time
}

// ClientInfo is the caller-supplied identity and capability set sent with
// the initialize request.
type ClientInfo struct {
	Implementation  mcp.Implementation
	ProtocolVersion ProtocolVersion
	Capabilities    mcp.Capabilities
}

// toRequest builds the mcp.InitializeRequest this ClientInfo describes,
// defaulting ProtocolVersion to DefaultProtocol when unset.
func (info ClientInfo) toRequest() mcp.InitializeRequest {
	version := info.ProtocolVersion
	if version == "" {
		version = DefaultProtocol
	}
	return mcp.InitializeRequest{
		ProtocolVersion: version,
		Capabilities:    info.Capabilities,
		ClientInfo:      info.Implementation,
	}
}
