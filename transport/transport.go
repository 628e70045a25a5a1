package transport

import (
	"context"
	"github.com/flowmesh-io/mcpproxy"
)

type Transport interface {
	Notifier
	Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error)
}
