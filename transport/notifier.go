package transport

import (
	"context"
	"github.com/flowmesh-io/mcpproxy"
)

// Notifier is implemented by anything that can emit a JSON-RPC
// notification toward its peer. Notifications received from the peer are
// not drained from a channel; they are dispatched synchronously to the
// transport's Handler.OnNotification as they arrive (see transport.Handler).
type Notifier interface {
	Notify(ctx context.Context, notification *jsonrpc.Notification) error
}
