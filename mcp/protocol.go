// Package mcp defines the Model Context Protocol message vocabulary carried
// as JSON-RPC params/result payloads: the initialize handshake, capability
// negotiation, and the tools/resources/prompts/sampling/logging namespaces.
package mcp

import "encoding/json"

// ProtocolVersion identifies a revision of the MCP wire format.
type ProtocolVersion string

const (
	// ProtocolVersionLegacy is the original dialect: session id carried as a
	// query parameter, a persistent discovery SSE stream.
	ProtocolVersionLegacy ProtocolVersion = "2024-11-05"
	// ProtocolVersionModern is the current dialect: Mcp-Session-Id header,
	// per-request JSON-or-SSE response bodies.
	ProtocolVersionModern ProtocolVersion = "2025-03-26"
)

// IsSupported reports whether v is one of the two dialects this module
// speaks natively. Custom version strings are accepted on the wire but are
// not supported.
func (v ProtocolVersion) IsSupported() bool {
	return v == ProtocolVersionLegacy || v == ProtocolVersionModern
}

// SupportedProtocolVersions lists the dialects offered during negotiation,
// most recent first.
func SupportedProtocolVersions() []ProtocolVersion {
	return []ProtocolVersion{ProtocolVersionModern, ProtocolVersionLegacy}
}

func (v ProtocolVersion) String() string { return string(v) }

// Implementation identifies a client or server implementation, echoed in
// the initialize handshake for diagnostics and compatibility checks.
type Implementation struct {
	Name     string                 `json:"name"`
	Version  string                 `json:"version"`
	Metadata map[string]interface{} `json:"-"`
}

// MarshalJSON flattens Metadata alongside Name/Version, matching the
// client-supplied implementation block on the wire.
func (i Implementation) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(i.Metadata)+2)
	for k, v := range i.Metadata {
		out[k] = v
	}
	out["name"] = i.Name
	out["version"] = i.Version
	return json.Marshal(out)
}

// UnmarshalJSON captures Name/Version and stashes any remaining keys in
// Metadata.
func (i *Implementation) UnmarshalJSON(data []byte) error {
	raw := map[string]interface{}{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if name, ok := raw["name"].(string); ok {
		i.Name = name
	}
	if version, ok := raw["version"].(string); ok {
		i.Version = version
	}
	delete(raw, "name")
	delete(raw, "version")
	if len(raw) > 0 {
		i.Metadata = raw
	}
	return nil
}

// ToolCapabilities advertises tool-related support.
type ToolCapabilities struct {
	ListChanged *bool `json:"listChanged,omitempty"`
}

// ResourceCapabilities advertises resource-related support.
type ResourceCapabilities struct {
	Subscribe   *bool `json:"subscribe,omitempty"`
	ListChanged *bool `json:"listChanged,omitempty"`
}

// PromptCapabilities advertises prompt-related support.
type PromptCapabilities struct {
	ListChanged *bool `json:"listChanged,omitempty"`
}

// SamplingCapabilities advertises client-side sampling support.
type SamplingCapabilities struct {
	Enabled *bool `json:"enabled,omitempty"`
}

// LoggingCapabilities advertises server-side log level control.
type LoggingCapabilities struct {
	Level *bool `json:"level,omitempty"`
}

// RootsCapabilities advertises client-side root directory support.
type RootsCapabilities struct {
	ListChanged *bool `json:"listChanged,omitempty"`
}

// StandardCapabilities is the set of capability blocks defined by MCP
// itself. Server and client each populate whichever subset applies to
// them; unused fields are omitted on the wire.
type StandardCapabilities struct {
	Tools     *ToolCapabilities     `json:"tools,omitempty"`
	Resources *ResourceCapabilities `json:"resources,omitempty"`
	Prompts   *PromptCapabilities   `json:"prompts,omitempty"`
	Sampling  *SamplingCapabilities `json:"sampling,omitempty"`
	Logging   *LoggingCapabilities  `json:"logging,omitempty"`
	Roots     *RootsCapabilities    `json:"roots,omitempty"`
}

// Capabilities combines the standard capability blocks with whatever
// experimental or vendor-specific extensions an implementation advertises
// alongside them.
type Capabilities struct {
	Standard StandardCapabilities
	Custom   map[string]json.RawMessage
}

// MarshalJSON flattens Standard and Custom into a single object, matching
// the capabilities object defined by the protocol.
func (c Capabilities) MarshalJSON() ([]byte, error) {
	std, err := json.Marshal(c.Standard)
	if err != nil {
		return nil, err
	}
	if len(c.Custom) == 0 {
		return std, nil
	}
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(std, &merged); err != nil {
		return nil, err
	}
	for k, v := range c.Custom {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON populates Standard by re-decoding the object, then records
// any keys StandardCapabilities doesn't recognize into Custom.
func (c *Capabilities) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &c.Standard); err != nil {
		return err
	}
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, known := range []string{"tools", "resources", "prompts", "sampling", "logging", "roots"} {
		delete(raw, known)
	}
	if len(raw) > 0 {
		c.Custom = raw
	}
	return nil
}
