package interceptor

import (
	"fmt"
	"sync"
	"time"

	"github.com/flowmesh-io/mcpproxy"
)

// RateLimit enforces a sliding-window request rate per method. It applies
// only to outgoing requests; notifications and responses pass untouched.
type RateLimit struct {
	base

	Window time.Duration
	Max    int

	mu        sync.Mutex
	timestamps map[string][]time.Time
}

// NewRateLimit creates a RateLimit interceptor allowing at most max
// requests per method within window.
func NewRateLimit(window time.Duration, max int) *RateLimit {
	return &RateLimit{
		Window:     window,
		Max:        max,
		timestamps: make(map[string][]time.Time),
	}
}

func (r *RateLimit) Name() string     { return "rate_limit" }
func (r *RateLimit) Priority() uint32 { return 30 }

func (r *RateLimit) ShouldIntercept(mc *MessageContext) bool {
	return mc.Direction == Outgoing && mc.Message.Type == jsonrpc.MessageTypeRequest
}

func (r *RateLimit) Intercept(mc *MessageContext) (InterceptionResult, error) {
	method := mc.Message.JsonRpcRequest.Method
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-r.Window)
	kept := r.timestamps[method][:0]
	for _, ts := range r.timestamps[method] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= r.Max {
		r.timestamps[method] = kept
		return InterceptionResult{
			Block:     true,
			Reasoning: fmt.Sprintf("rate limit exceeded for method %q: %d requests observed within %s (max %d)", method, len(kept), r.Window, r.Max),
		}, nil
	}

	kept = append(kept, now)
	r.timestamps[method] = kept
	return InterceptionResult{Message: mc.Message}, nil
}
