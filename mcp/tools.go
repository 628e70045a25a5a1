package mcp

import "encoding/json"

// ListToolsRequest is the params of "tools/list".
type ListToolsRequest struct {
	Cursor *string `json:"cursor,omitempty"`
}

// ListToolsResponse is the result of "tools/list".
type ListToolsResponse struct {
	Tools      []Tool  `json:"tools"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

// Tool describes a single callable tool exposed by a server.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
	Extensions  json.RawMessage `json:"extensions,omitempty"`
	ReadOnly    *bool           `json:"readOnly,omitempty"`
	ReturnType  json.RawMessage `json:"returnType,omitempty"`
}

// CallToolRequest is the params of "tools/call".
type CallToolRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallToolResponse is the result of "tools/call".
type CallToolResponse struct {
	Content []ToolResult `json:"content"`
	IsError *bool        `json:"isError,omitempty"`
}

// ToolResult is one tagged-variant entry of a tool call's content array.
type ToolResult struct {
	Type     string             `json:"type"`
	Text     string             `json:"text,omitempty"`
	Data     string             `json:"data,omitempty"`
	MimeType string             `json:"mimeType,omitempty"`
	Resource *ResourceReference `json:"resource,omitempty"`
}

// TextToolResult builds a "text" tool result entry.
func TextToolResult(text string) ToolResult { return ToolResult{Type: "text", Text: text} }

// ImageToolResult builds an "image" tool result entry; data is base64-encoded.
func ImageToolResult(data, mimeType string) ToolResult {
	return ToolResult{Type: "image", Data: data, MimeType: mimeType}
}

// ResourceReference points at a resource surfaced inline, e.g. from a tool
// result.
type ResourceReference struct {
	URI  string  `json:"uri"`
	Text *string `json:"text,omitempty"`
}

// ToolListChangedNotification signals "notifications/tools/list_changed".
type ToolListChangedNotification struct {
	Metadata map[string]json.RawMessage `json:"-"`
}
