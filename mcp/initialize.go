package mcp

// InitializeRequest is the params of the "initialize" method, the first
// request a client sends after establishing a transport connection.
type InitializeRequest struct {
	ProtocolVersion ProtocolVersion `json:"protocolVersion"`
	Capabilities    Capabilities    `json:"capabilities"`
	ClientInfo      Implementation  `json:"clientInfo"`
}

// InitializeResponse is the result of "initialize". Instructions, when
// present, is freeform guidance the server wants the client to surface to
// its user before the session is used.
type InitializeResponse struct {
	ProtocolVersion ProtocolVersion `json:"protocolVersion"`
	Capabilities    Capabilities    `json:"capabilities"`
	ServerInfo      Implementation  `json:"serverInfo"`
	Instructions    *string         `json:"instructions,omitempty"`
}

// InitializedNotification is sent by the client after it has accepted the
// server's InitializeResponse, completing the handshake.
type InitializedNotification struct{}
