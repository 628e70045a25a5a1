package proxy

import "github.com/flowmesh-io/mcpproxy"

// Option configures a Proxy at construction time.
type Option func(*Proxy)

// WithObserver attaches the observer every ObserverEvent is emitted to.
func WithObserver(observer Observer) Option {
	return func(p *Proxy) {
		if observer != nil {
			p.Observer = observer
		}
	}
}

// WithLogger overrides the logger used for proxy diagnostics.
func WithLogger(logger jsonrpc.Logger) Option {
	return func(p *Proxy) {
		if logger != nil {
			p.Logger = logger
		}
	}
}
