package mcp

// ListResourcesRequest is the params of "resources/list".
type ListResourcesRequest struct {
	Cursor *string `json:"cursor,omitempty"`
}

// ListResourcesResponse is the result of "resources/list".
type ListResourcesResponse struct {
	Resources  []Resource `json:"resources"`
	NextCursor *string    `json:"nextCursor,omitempty"`
}

// Resource describes a single resource a server can read or let a client
// subscribe to.
type Resource struct {
	URI         string  `json:"uri"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	MimeType    *string `json:"mimeType,omitempty"`
}

// ReadResourceRequest is the params of "resources/read".
type ReadResourceRequest struct {
	URI string `json:"uri"`
}

// ReadResourceResponse is the result of "resources/read".
type ReadResourceResponse struct {
	Contents []ResourceContent `json:"contents"`
}

// ResourceContent is one tagged-variant entry of a resource read, either
// inline text or base64-encoded binary.
type ResourceContent struct {
	Type     string  `json:"type"`
	Text     string  `json:"text,omitempty"`
	Blob     string  `json:"blob,omitempty"`
	URI      string  `json:"uri"`
	MimeType *string `json:"mimeType,omitempty"`
}

// TextResourceContent builds a "text" resource content entry.
func TextResourceContent(uri, text string) ResourceContent {
	return ResourceContent{Type: "text", URI: uri, Text: text}
}

// BlobResourceContent builds a "blob" resource content entry.
func BlobResourceContent(uri, blob string) ResourceContent {
	return ResourceContent{Type: "blob", URI: uri, Blob: blob}
}

// SubscribeRequest is the params of "resources/subscribe".
type SubscribeRequest struct {
	URI string `json:"uri"`
}

// UnsubscribeRequest is the params of "resources/unsubscribe".
type UnsubscribeRequest struct {
	URI string `json:"uri"`
}

// ResourceUpdatedNotification signals "notifications/resources/updated".
type ResourceUpdatedNotification struct {
	URI string `json:"uri"`
}

// ResourceListChangedNotification signals
// "notifications/resources/list_changed".
type ResourceListChangedNotification struct{}
