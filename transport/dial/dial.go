// Package dial is the single entry point that turns a declarative
// transport.Config into a connected transport.Transport, dispatching to
// the stdio, HTTP+SSE, or Streamable HTTP driver per transport.Config.Kind.
//
// It lives outside package transport to avoid an import cycle: each
// driver package (transport/client/stdio, .../sse, .../streamable) already
// imports transport for the shared Config/Error/PendingRequests types, so
// the factory that imports all three drivers cannot itself live in
// transport.
package dial

import (
	"context"
	"fmt"

	"github.com/flowmesh-io/mcpproxy"
	"github.com/flowmesh-io/mcpproxy/transport"
	"github.com/flowmesh-io/mcpproxy/transport/client/http/sse"
	"github.com/flowmesh-io/mcpproxy/transport/client/http/streamable"
	"github.com/flowmesh-io/mcpproxy/transport/client/stdio"
)

// Option configures cross-cutting concerns shared by every driver,
// independent of which transport.Config variant is dialed.
type Option func(*options)

type options struct {
	logger      jsonrpc.Logger
	listener    jsonrpc.Listener
	interceptor transport.Interceptor
	pending     *transport.PendingRequests
	handler     transport.Handler
}

// WithLogger overrides the logger used for transport diagnostics.
func WithLogger(logger jsonrpc.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithListener sets a listener that observes every frame sent or received.
func WithListener(listener jsonrpc.Listener) Option {
	return func(o *options) { o.listener = listener }
}

// WithInterceptor attaches a client-side interceptor to the request path.
func WithInterceptor(interceptor transport.Interceptor) Option {
	return func(o *options) { o.interceptor = interceptor }
}

// WithPending overrides the correlation table, e.g. to share one across
// transports in tests.
func WithPending(pending *transport.PendingRequests) Option {
	return func(o *options) { o.pending = pending }
}

// WithHandler overrides the inbound request/notification handler.
func WithHandler(handler transport.Handler) Option {
	return func(o *options) { o.handler = handler }
}

// New validates cfg and constructs the transport it describes; there is
// no separate connect step. The stdio driver starts the command inside
// New, the Legacy HTTP+SSE driver waits for its discovery stream to
// announce a session, and the Modern HTTP+SSE and Streamable HTTP drivers
// make no request until the first Send or Notify.
func New(ctx context.Context, cfg transport.Config, opts ...Option) (transport.Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch cfg.Kind() {
	case transport.ConfigKindStdio:
		return stdio.New(cfg.Stdio, stdioOptions(o)...)
	case transport.ConfigKindHttpSse:
		return sse.New(ctx, cfg.HttpSse, sseOptions(o)...)
	case transport.ConfigKindHttpStream:
		return streamable.New(ctx, cfg.HttpStream, streamableOptions(o)...)
	default:
		return nil, transport.NewInvalidConfigError(fmt.Sprintf("unrecognized transport config kind %q", cfg.Kind()))
	}
}

func stdioOptions(o options) []stdio.Option {
	var out []stdio.Option
	if o.logger != nil {
		out = append(out, stdio.WithLogger(o.logger))
	}
	if o.listener != nil {
		out = append(out, stdio.WithListener(o.listener))
	}
	if o.interceptor != nil {
		out = append(out, stdio.WithInterceptor(o.interceptor))
	}
	if o.pending != nil {
		out = append(out, stdio.WithPending(o.pending))
	}
	if o.handler != nil {
		out = append(out, stdio.WithHandler(o.handler))
	}
	return out
}

func sseOptions(o options) []sse.Option {
	var out []sse.Option
	if o.listener != nil {
		out = append(out, sse.WithListener(o.listener))
	}
	if o.interceptor != nil {
		out = append(out, sse.WithInterceptor(o.interceptor))
	}
	if o.pending != nil {
		out = append(out, sse.WithPending(o.pending))
	}
	if o.handler != nil {
		out = append(out, sse.WithHandler(o.handler))
	}
	return out
}

func streamableOptions(o options) []streamable.Option {
	var out []streamable.Option
	if o.listener != nil {
		out = append(out, streamable.WithListener(o.listener))
	}
	if o.interceptor != nil {
		out = append(out, streamable.WithInterceptor(o.interceptor))
	}
	if o.pending != nil {
		out = append(out, streamable.WithPending(o.pending))
	}
	if o.handler != nil {
		out = append(out, streamable.WithHandler(o.handler))
	}
	return out
}
