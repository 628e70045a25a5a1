package session

import "github.com/flowmesh-io/mcpproxy/mcp"

// NotificationHandler receives the five MCP notification methods the
// client session recognizes and deserializes for the caller, typed with
// the wire vocabulary from package mcp. Any other notification method is
// logged as a warning and discarded.
type NotificationHandler interface {
	OnProgress(params mcp.ProgressNotification)
	OnResourceUpdated(params mcp.ResourceUpdatedNotification)
	OnResourcesListChanged()
	OnToolsListChanged()
	OnPromptsListChanged()
}

// The five notification methods a client session recognizes and
// dispatches, plus the initialized notification it sends itself.
const (
	MethodProgress             = "notifications/progress"
	MethodResourceUpdated      = "notifications/resources/updated"
	MethodResourcesListChanged = "notifications/resources/list_changed"
	MethodToolsListChanged     = "notifications/tools/list_changed"
	MethodPromptsListChanged   = "notifications/prompts/list_changed"
	MethodInitialized          = "notifications/initialized"
)

// NopNotificationHandler discards every notification; useful when a
// caller has no interest in server push traffic.
type NopNotificationHandler struct{}

func (NopNotificationHandler) OnProgress(mcp.ProgressNotification)          {}
func (NopNotificationHandler) OnResourceUpdated(mcp.ResourceUpdatedNotification) {}
func (NopNotificationHandler) OnResourcesListChanged()                          {}
func (NopNotificationHandler) OnToolsListChanged()                              {}
func (NopNotificationHandler) OnPromptsListChanged()                            {}
