package stdio

import (
	"time"

	"github.com/flowmesh-io/mcpproxy"
	"github.com/flowmesh-io/mcpproxy/transport"
	"github.com/viant/scy/cred/secret"
)

type Option func(c *Client)

// WithArguments appends extra command line arguments beyond those in the
// transport.StdioConfig passed to New.
func WithArguments(args ...string) Option {
	return func(c *Client) {
		c.args = append(c.args, args...)
	}
}

// WithEnvironment sets an additional environment variable beyond those in
// the transport.StdioConfig passed to New.
func WithEnvironment(key, value string) Option {
	return func(c *Client) {
		if c.env == nil {
			c.env = make(map[string]string)
		}
		c.env[key] = value
	}
}

// WithSecret overrides the secret resource used to resolve SSH credentials
// for a remote command.
func WithSecret(resource secret.Resource) Option {
	return func(c *Client) {
		c.secret = resource
	}
}

// WithPending overrides the correlation table, e.g. to share one across
// clients in tests.
func WithPending(pending *transport.PendingRequests) Option {
	return func(c *Client) {
		c.base.Pending = pending
	}
}

// WithListener sets a listener that observes every frame sent or received.
func WithListener(listener jsonrpc.Listener) Option {
	return func(c *Client) {
		c.base.Listener = listener
	}
}

// WithRunTimeout overrides the per-request timeout, in milliseconds.
func WithRunTimeout(timeoutMs int) Option {
	return func(c *Client) {
		c.base.RunTimeout = time.Duration(timeoutMs) * time.Millisecond
	}
}

// WithHandler overrides the inbound request/notification handler.
func WithHandler(handler transport.Handler) Option {
	return func(c *Client) {
		c.base.Handler = handler
	}
}

// WithLogger overrides the logger used for transport diagnostics.
func WithLogger(logger jsonrpc.Logger) Option {
	return func(c *Client) {
		c.base.Logger = logger
	}
}

// WithInterceptor attaches a client-side interceptor to the request path.
func WithInterceptor(interceptor transport.Interceptor) Option {
	return func(c *Client) {
		c.base.Interceptor = interceptor
	}
}
