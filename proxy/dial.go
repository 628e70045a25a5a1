package proxy

import (
	"context"
	"fmt"

	"github.com/flowmesh-io/mcpproxy/session"
	"github.com/flowmesh-io/mcpproxy/transport"
	"github.com/flowmesh-io/mcpproxy/transport/dial"
	serverhttp "github.com/flowmesh-io/mcpproxy/transport/server/http"
	serversse "github.com/flowmesh-io/mcpproxy/transport/server/http/sse"
	serverstreamable "github.com/flowmesh-io/mcpproxy/transport/server/http/streamable"
	serverstdio "github.com/flowmesh-io/mcpproxy/transport/server/stdio"
)

// Connect dials the downstream MCP server described by cfg using
// transport/dial.New, runs the initialize handshake over it, and returns a
// Proxy bound to the resulting session — the construction path spec.md's
// data-flow describes as "proxy server-facing session", wired through the
// real stdio/HTTP+SSE/Streamable drivers rather than a test double.
func Connect(ctx context.Context, cfg transport.Config, id string, info session.ClientInfo, dialOpts []dial.Option, sessionOpts []session.Option, proxyOpts ...Option) (*Proxy, error) {
	downstream, err := dial.New(ctx, cfg, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial downstream transport: %w", err)
	}
	sess := session.New(downstream, sessionOpts...)
	if err := sess.Connect(ctx, info); err != nil {
		return nil, fmt.Errorf("connect downstream session: %w", err)
	}
	return New(id, sess, proxyOpts...), nil
}

// ListenStdio serves p on stdin/stdout: every line an external client (the
// process that spawned this one) writes is forwarded downstream through
// p.Downstream, and the downstream's response is written back. It blocks
// until the client's stdin is closed or ctx is cancelled.
func ListenStdio(ctx context.Context, p *Proxy, opts ...serverstdio.Option) error {
	return serverstdio.New(ctx, p.NewHandler, opts...).ListenAndServe()
}

// ListenSSE binds a Legacy HTTP+SSE upstream listener to addr, so external
// clients speaking the 2024-11-05 dialect can connect to p. It blocks
// until the listener stops or errors.
func ListenSSE(addr string, p *Proxy, opts ...serversse.Option) error {
	handler := serversse.New(p.NewHandler, opts...)
	return serverhttp.NewServer(addr, handler).Start()
}

// ListenStreamable binds a Modern Streamable-HTTP upstream listener to
// addr, so external clients speaking the 2025-03-26/2025-06-18 dialect can
// connect to p. It blocks until the listener stops or errors.
func ListenStreamable(addr string, p *Proxy, opts ...serverstreamable.Option) error {
	handler := serverstreamable.New(p.NewHandler, opts...)
	return serverhttp.NewServer(addr, handler).Start()
}
