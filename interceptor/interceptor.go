// Package interceptor implements the priority-ordered chain of frame
// interceptors that sits between the proxy's client-facing and
// server-facing transports: each frame crossing the proxy, in either
// direction, passes through every applicable interceptor in priority
// order before it is forwarded.
package interceptor

import (
	"time"

	"github.com/flowmesh-io/mcpproxy"
)

// Direction identifies which way a frame is travelling through the proxy.
type Direction string

const (
	// Outgoing is a frame moving from the client session towards the
	// server-facing transport (a request or a notification).
	Outgoing Direction = "outgoing"
	// Incoming is a frame moving from the server-facing transport back
	// towards the client (a response or a server-initiated notification).
	Incoming Direction = "incoming"
)

// MessageContext carries the frame currently being evaluated plus the
// metadata interceptors may read or annotate. Message may already reflect
// modifications made by earlier interceptors in the chain.
type MessageContext struct {
	Message   *jsonrpc.Message
	Direction Direction
	Timestamp time.Time
	SessionID string
	Metadata  map[string]interface{}
}

// InterceptionResult is what an interceptor (or the chain as a whole)
// returns for a single frame.
type InterceptionResult struct {
	// Modified is true when Message differs from the input the
	// interceptor was given.
	Modified bool
	// Message is the (possibly unchanged) frame to continue the chain with.
	Message *jsonrpc.Message
	// Block, when true, short-circuits the chain; Reasoning explains why.
	Block     bool
	Reasoning string
	// Confidence is an interceptor-assigned [0,1] score for a
	// modification, averaged across the chain's aggregate result.
	Confidence float64
}

// Stats is a point-in-time snapshot of an interceptor's (or chain's)
// running counters.
type Stats struct {
	TotalIntercepted    uint64
	TotalModified       uint64
	TotalBlocked        uint64
	AvgProcessingTimeMs float64
	LastProcessed       *time.Time
}

// Interceptor is a pluggable unit that observes, modifies, or blocks
// frames within a direction. Concrete interceptors are plain structs with
// their own internal locks if they maintain state; the chain holds a
// shared handle and never copies an interceptor's state.
type Interceptor interface {
	// Name is stable and used as the key for Chain.Remove and for the
	// per-interceptor statistics of Chain.InterceptorStats.
	Name() string
	// Priority orders the chain; lower runs first.
	Priority() uint32
	// ShouldIntercept is a cheap filter run before Intercept; returning
	// false skips this interceptor for the frame entirely.
	ShouldIntercept(mc *MessageContext) bool
	// Intercept performs the interceptor's action. A returned error is
	// logged by the chain and treated as a pass-through: it does not stop
	// the pipeline.
	Intercept(mc *MessageContext) (InterceptionResult, error)
	// Stats returns a snapshot of this interceptor's counters.
	Stats() Stats
}

// statsRecorder is implemented by the built-in interceptors' embedded
// base type; the chain uses it to update per-interceptor counters after
// every Intercept call without requiring interceptors to do their own
// timing.
type statsRecorder interface {
	record(dur time.Duration, modified, blocked bool)
}
