package streamable

import (
	"net/http"
	"time"

	"github.com/flowmesh-io/mcpproxy"
	"github.com/flowmesh-io/mcpproxy/transport"
)

// Option mutates Client.
type Option func(*Client)

// WithHTTPClient allows custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithHandler sets the handler for inbound requests and notifications.
func WithHandler(handler transport.Handler) Option {
	return func(c *Client) {
		c.base.Handler = handler
	}
}

// WithListener sets a listener that observes low-level transport messages.
func WithListener(listener jsonrpc.Listener) Option {
	return func(c *Client) {
		c.base.Listener = listener
	}
}

// WithPending overrides the correlation table.
func WithPending(pending *transport.PendingRequests) Option {
	return func(c *Client) {
		c.base.Pending = pending
	}
}

// WithInterceptor attaches a client-side interceptor to the request path.
func WithInterceptor(interceptor transport.Interceptor) Option {
	return func(c *Client) {
		c.base.Interceptor = interceptor
	}
}

// WithHandshakeTimeout overrides default handshake timeout.
func WithHandshakeTimeout(duration time.Duration) Option {
	return func(c *Client) {
		if duration <= 0 {
			return
		}
		c.handshakeTimeout = duration
	}
}

// WithSessionHeaderName sets a custom HTTP header name used to carry the
// session id. Defaults to "Mcp-Session-Id".
func WithSessionHeaderName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.sessionHeaderName = name
		}
	}
}

// WithProtocolVersion sets the MCP protocol version header (MCP-Protocol-Version)
// to be included on all HTTP requests made by the client (handshake, POSTs, and GET stream).
func WithProtocolVersion(version string) Option {
	return func(c *Client) {
		if version == "" {
			return
		}
		c.protocolVersion = version
		if c.transport != nil && c.transport.headers != nil {
			c.transport.headers.Set("MCP-Protocol-Version", version)
		}
	}
}
