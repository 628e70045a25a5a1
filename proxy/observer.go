package proxy

import (
	"time"

	"github.com/flowmesh-io/mcpproxy/interceptor"
	"github.com/flowmesh-io/mcpproxy/session"
)

// ObserverEvent is the Go-typed counterpart of spec.md §6's proxy↔observer
// channel. The core only ever emits the five concrete types below; the
// remaining channel messages (ToggleInterceptor, GetStatus, Shutdown,
// Ping/Pong) are consumed by whatever sits on the other end of the
// channel and never originate here.
type ObserverEvent interface {
	observerEvent()
}

// ProxyStarted is emitted once a Proxy has attached to its client-facing
// transport and the downstream session is Ready.
type ProxyStarted struct {
	ID         string
	StartedAt  time.Time
	ServerInfo *session.ServerInfo
}

// ProxyStopped is emitted when a Proxy's client-facing connection closes.
type ProxyStopped struct {
	ID       string
	StoppedAt time.Time
	Reason   string
}

// LogEntry is a single structured diagnostic emitted by the proxy as it
// forwards frames, independent of whatever jsonrpc.Logger is configured.
type LogEntry struct {
	ID        string
	Level     string
	Message   string
	Method    string
	Direction interceptor.Direction
	At        time.Time
}

// StatsUpdate carries a snapshot of the downstream session's counters.
type StatsUpdate struct {
	ID    string
	Stats session.Stats
	At    time.Time
}

// InterceptorStatsEvent carries a snapshot of the interceptor chain's
// aggregate and per-interceptor counters.
type InterceptorStatsEvent struct {
	ID          string
	Chain       interceptor.ChainStats
	PerMember   map[string]interceptor.Stats
	At          time.Time
}

func (ProxyStarted) observerEvent()          {}
func (ProxyStopped) observerEvent()          {}
func (LogEntry) observerEvent()              {}
func (StatsUpdate) observerEvent()           {}
func (InterceptorStatsEvent) observerEvent() {}

// Observer receives every event a Proxy emits. Implementations must not
// block; a slow or unavailable observer must never stall frame forwarding.
type Observer interface {
	Emit(event ObserverEvent)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) Emit(ObserverEvent) {}
