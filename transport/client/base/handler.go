package base

import (
	"context"

	"github.com/flowmesh-io/mcpproxy"
)

// Handler is a default Handler that rejects every inbound request with
// method-not-found; embed and override Serve for anything that must
// actually answer server-initiated requests (e.g. sampling/createMessage).
type Handler struct{}

func (h *Handler) Serve(_ context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	response.Id = request.Id
	response.Jsonrpc = request.Jsonrpc
	response.Error = jsonrpc.NewMethodNotFound(request.Method)
}

func (h *Handler) OnNotification(_ context.Context, _ *jsonrpc.Notification) {
	// ignore by default
}
