package session

import (
	"time"

	"github.com/flowmesh-io/mcpproxy"
	"github.com/flowmesh-io/mcpproxy/interceptor"
)

// Option configures a Session at construction time.
type Option func(*Session)

// WithChain attaches the interceptor chain run over every outgoing
// request/notification and every incoming response.
func WithChain(chain *interceptor.Chain) Option {
	return func(s *Session) { s.Chain = chain }
}

// WithNotificationHandler overrides the handler server-pushed
// notifications are dispatched to.
func WithNotificationHandler(handler NotificationHandler) Option {
	return func(s *Session) { s.Handler = handler }
}

// WithLogger overrides the logger used for session diagnostics.
func WithLogger(logger jsonrpc.Logger) Option {
	return func(s *Session) { s.Logger = logger }
}

// WithRequestTimeout overrides the per-request deadline (default 30s).
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Session) {
		if timeout > 0 {
			s.RequestTimeout = timeout
		}
	}
}

// WithInitTimeout overrides the initialize-handshake deadline (default 10s).
func WithInitTimeout(timeout time.Duration) Option {
	return func(s *Session) {
		if timeout > 0 {
			s.InitTimeout = timeout
		}
	}
}

// WithRetryPolicy overrides the exponential backoff base and the maximum
// number of retry attempts for a single Send call.
func WithRetryPolicy(base time.Duration, max int) Option {
	return func(s *Session) {
		if base > 0 {
			s.RetryBase = base
		}
		if max >= 0 {
			s.RetryMax = max
		}
	}
}
