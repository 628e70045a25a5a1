// Package proxy glues one client-facing transport to one server-facing
// session, per spec.md's data-flow: external client -> proxy client-side
// transport -> interceptor chain (outgoing) -> client session (assigns id,
// stores pending) -> server-side transport -> server. A Proxy owns exactly
// one of each; running several connections through the same downstream
// server means constructing several Proxy values, one per upstream
// connection, each wrapping its own session.Session.
package proxy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flowmesh-io/mcpproxy"
	"github.com/flowmesh-io/mcpproxy/interceptor"
	"github.com/flowmesh-io/mcpproxy/mcp"
	"github.com/flowmesh-io/mcpproxy/session"
	"github.com/flowmesh-io/mcpproxy/transport"
)

const (
	directionOutgoing = interceptor.Outgoing
	directionIncoming = interceptor.Incoming
)

// Proxy implements transport.Handler for the client-facing transport (the
// connection to the external MCP client) and session.NotificationHandler
// for the server-facing session (the connection to the real MCP server),
// forwarding every frame between the two. Interception itself happens
// inside Downstream.Send/Notify, which already run the shared chain in
// both directions around the wire hop; Proxy's job is the binding, the
// stats snapshots, and the observer events.
type Proxy struct {
	ID         string
	Downstream *session.Session
	Observer   Observer
	Logger     jsonrpc.Logger

	mu       sync.RWMutex
	upstream transport.Transport
	started  time.Time
}

// New creates a Proxy bound to an already-constructed downstream session.
// Connect the session (or leave that to the caller) before routing any
// upstream traffic through it.
func New(id string, downstream *session.Session, options ...Option) *Proxy {
	p := &Proxy{
		ID:         id,
		Downstream: downstream,
		Observer:   NopObserver{},
		Logger:     jsonrpc.DefaultLogger,
	}
	for _, option := range options {
		option(p)
	}
	downstream.Handler = p
	return p
}

// NewHandler matches transport.NewHandler and can be passed directly as
// the factory argument to any transport/server listener constructor
// (stdio.New, sse.New, streamable.New). It is only meant to be invoked
// once per Proxy, matching the 1:1 client/server-side ownership model;
// a second invocation replaces the upstream transport outright, which is
// only safe if the first connection has already been torn down.
func (p *Proxy) NewHandler(ctx context.Context, upstream transport.Transport) transport.Handler {
	p.mu.Lock()
	p.upstream = upstream
	p.started = time.Now()
	p.mu.Unlock()

	p.Observer.Emit(ProxyStarted{
		ID:         p.ID,
		StartedAt:  p.started,
		ServerInfo: p.Downstream.ServerInfo(),
	})
	p.emitLog("info", "proxy attached to upstream connection", "", "")
	return p
}

// Stop emits ProxyStopped with reason, e.g. from the caller's own
// connection-closed callback; Proxy has no transport to close itself,
// since it does not own either transport's lifecycle.
func (p *Proxy) Stop(reason string) {
	p.Observer.Emit(ProxyStopped{ID: p.ID, StoppedAt: time.Now(), Reason: reason})
}

// Serve implements transport.Handler: every request the external client
// sends is forwarded to the downstream session, and the downstream's
// response (already passed back through the interceptor chain by
// Session.Send) is copied verbatim into response.
func (p *Proxy) Serve(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	p.emitLog("debug", fmt.Sprintf("forwarding request %q downstream", request.Method), request.Method, directionOutgoing)

	resp, err := p.Downstream.Send(ctx, request.Method, request.Params)
	if err != nil {
		response.Error = toInnerError(err)
		p.emitLog("warn", fmt.Sprintf("downstream send failed for %q: %v", request.Method, err), request.Method, directionOutgoing)
		p.emitStats()
		return
	}

	response.Result = resp.Result
	response.Error = resp.Error
	p.emitStats()
	p.emitInterceptorStats()
}

// OnNotification implements transport.Handler: every notification the
// external client sends is forwarded downstream as a fire-and-forget
// notification.
func (p *Proxy) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {
	p.emitLog("debug", fmt.Sprintf("forwarding notification %q downstream", notification.Method), notification.Method, directionOutgoing)
	if err := p.Downstream.Notify(ctx, notification.Method, notification.Params); err != nil {
		p.emitLog("warn", fmt.Sprintf("downstream notify failed for %q: %v", notification.Method, err), notification.Method, directionOutgoing)
	}
	p.emitStats()
}

// The five session.NotificationHandler callbacks: each re-forwards the
// server-initiated push to the upstream (external client) connection, so
// a caller installs Proxy as the downstream session's notification
// handler (New does this automatically).

func (p *Proxy) OnProgress(params mcp.ProgressNotification) {
	p.forward(session.MethodProgress, params)
}

func (p *Proxy) OnResourceUpdated(params mcp.ResourceUpdatedNotification) {
	p.forward(session.MethodResourceUpdated, params)
}

func (p *Proxy) OnResourcesListChanged() {
	p.forward(session.MethodResourcesListChanged, nil)
}

func (p *Proxy) OnToolsListChanged() {
	p.forward(session.MethodToolsListChanged, nil)
}

func (p *Proxy) OnPromptsListChanged() {
	p.forward(session.MethodPromptsListChanged, nil)
}

func (p *Proxy) forward(method string, params interface{}) {
	p.mu.RLock()
	upstream := p.upstream
	p.mu.RUnlock()
	if upstream == nil {
		p.emitLog("warn", fmt.Sprintf("dropping %q: no upstream attached", method), method, directionIncoming)
		return
	}

	notification, err := jsonrpc.NewNotification(method, params)
	if err != nil {
		p.emitLog("error", fmt.Sprintf("failed to build %q notification: %v", method, err), method, directionIncoming)
		return
	}

	p.emitLog("debug", fmt.Sprintf("forwarding notification %q upstream", method), method, directionIncoming)
	ctx := context.Background()
	if err := upstream.Notify(ctx, notification); err != nil {
		p.emitLog("warn", fmt.Sprintf("upstream notify failed for %q: %v", method, err), method, directionIncoming)
	}
}

func toInnerError(err error) *jsonrpc.Error {
	if rpcErr, ok := err.(*jsonrpc.Error); ok {
		return rpcErr
	}
	return jsonrpc.NewInternalError(err)
}

func (p *Proxy) emitLog(level, message, method string, direction interceptor.Direction) {
	switch level {
	case "debug":
		p.Logger.Debugf("[%s] %s", p.ID, message)
	case "warn":
		p.Logger.Warnf("[%s] %s", p.ID, message)
	case "error":
		p.Logger.Errorf("[%s] %s", p.ID, message)
	default:
		p.Logger.Infof("[%s] %s", p.ID, message)
	}
	p.Observer.Emit(LogEntry{
		ID:        p.ID,
		Level:     level,
		Message:   message,
		Method:    method,
		Direction: direction,
		At:        time.Now(),
	})
}

func (p *Proxy) emitStats() {
	p.Observer.Emit(StatsUpdate{ID: p.ID, Stats: p.Downstream.Stats(), At: time.Now()})
}

func (p *Proxy) emitInterceptorStats() {
	chain := p.Downstream.Chain
	if chain == nil {
		return
	}
	p.Observer.Emit(InterceptorStatsEvent{
		ID:        p.ID,
		Chain:     chain.Stats(),
		PerMember: chain.InterceptorStats(),
		At:        time.Now(),
	})
}
