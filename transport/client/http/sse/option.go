package sse

import (
	"net/http"
	"time"

	"github.com/flowmesh-io/mcpproxy"
	"github.com/flowmesh-io/mcpproxy/transport"
)

// Option is a function that configures the Client
type Option func(*Client)

// WithClient overrides the HTTP client used for both the SSE stream and
// outbound POSTs.
func WithClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
		c.transport.client = client
	}
}

// WithHandshakeTimeout sets the handshake timeout for the SSE client
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.handshakeTimeout = timeout
	}
}

// WithPending overrides the correlation table.
func WithPending(pending *transport.PendingRequests) Option {
	return func(c *Client) {
		c.base.Pending = pending
	}
}

// WithListener set listener on http tips
func WithListener(listener jsonrpc.Listener) Option {
	return func(c *Client) {
		c.base.Listener = listener
	}
}

func WithHandler(handler transport.Handler) Option {
	return func(c *Client) {
		c.base.Handler = handler
	}
}

// WithInterceptor attaches a client-side interceptor to the request path.
func WithInterceptor(interceptor transport.Interceptor) Option {
	return func(c *Client) {
		c.base.Interceptor = interceptor
	}
}
