package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flowmesh-io/mcpproxy"
)

// ErrPendingClosed is returned once a PendingRequests table has been
// closed, e.g. because the underlying transport disconnected.
var ErrPendingClosed = errors.New("transport: pending request table closed")

// ErrTimeout is returned by Wait when no response arrives within the
// caller-supplied timeout.
var ErrTimeout = errors.New("transport: round trip timed out")

// RoundTrip tracks a single in-flight request awaiting its response.
type RoundTrip struct {
	Request  *jsonrpc.Request
	Response *jsonrpc.Response
	err      error
	done     chan struct{}
}

// NewRoundTrip creates a trip for request, not yet completed.
func NewRoundTrip(request *jsonrpc.Request) *RoundTrip {
	return &RoundTrip{Request: request, done: make(chan struct{})}
}

// Wait blocks until the trip completes, the context is cancelled, or
// timeout elapses, whichever comes first.
func (t *RoundTrip) Wait(ctx context.Context, timeout time.Duration) (*jsonrpc.Response, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTimeout
	case <-t.done:
		if t.err != nil {
			return nil, t.err
		}
		return t.Response, nil
	}
}

// SetError fails the trip with a transport-level error, distinct from a
// JSON-RPC error response (which SetResponse already carries).
func (t *RoundTrip) SetError(err error) {
	t.err = err
	close(t.done)
}

// SetResponse completes the trip with a JSON-RPC response, successful or
// not; a populated Response.Error is not itself a transport failure.
func (t *RoundTrip) SetResponse(response *jsonrpc.Response) {
	t.Response = response
	close(t.done)
}

// PendingRequests is a correlation table of in-flight round trips, keyed
// by the canonical string form of the JSON-RPC request id
// (jsonrpc.IDString). It replaces a fixed-capacity, reflection-matched
// ring buffer with a map that scales with actual concurrency and resolves
// ids by simple string equality.
type PendingRequests struct {
	mu     sync.Mutex
	trips  map[string]*RoundTrip
	closed bool
	err    error
}

// NewPendingRequests creates an empty correlation table.
func NewPendingRequests() *PendingRequests {
	return &PendingRequests{trips: make(map[string]*RoundTrip)}
}

// Add registers a new round trip for request and returns it; the caller
// waits on the returned trip for completion.
func (p *PendingRequests) Add(request *jsonrpc.Request) (*RoundTrip, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, p.err
	}
	key := jsonrpc.IDString(request.Id)
	if _, exists := p.trips[key]; exists {
		return nil, fmt.Errorf("transport: duplicate request id %s", key)
	}
	trip := NewRoundTrip(request)
	p.trips[key] = trip
	return trip, nil
}

// Peek returns the request of the pending trip registered under id,
// without completing or removing it. Used by interceptors that need to
// see the original request a response answers before it resolves.
func (p *PendingRequests) Peek(id jsonrpc.RequestId) *jsonrpc.Request {
	key := jsonrpc.IDString(id)
	p.mu.Lock()
	defer p.mu.Unlock()
	trip, ok := p.trips[key]
	if !ok {
		return nil
	}
	return trip.Request
}

// Resolve completes the pending trip matching response.Id, if any. It
// returns false when no trip is registered under that id (a stray or
// duplicate response).
func (p *PendingRequests) Resolve(response *jsonrpc.Response) bool {
	key := jsonrpc.IDString(response.Id)
	p.mu.Lock()
	trip, ok := p.trips[key]
	if ok {
		delete(p.trips, key)
	}
	p.mu.Unlock()
	if !ok {
		return false
	}
	trip.SetResponse(response)
	return true
}

// Cancel fails and removes the pending trip for id, if present.
func (p *PendingRequests) Cancel(id jsonrpc.RequestId, err error) bool {
	key := jsonrpc.IDString(id)
	p.mu.Lock()
	trip, ok := p.trips[key]
	if ok {
		delete(p.trips, key)
	}
	p.mu.Unlock()
	if !ok {
		return false
	}
	trip.SetError(err)
	return true
}

// CloseWithError fails every outstanding trip with err and rejects all
// future Add calls with the same error. Used when the underlying
// transport disconnects.
func (p *PendingRequests) CloseWithError(err error) {
	if err == nil {
		err = ErrPendingClosed
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.err = err
	trips := p.trips
	p.trips = make(map[string]*RoundTrip)
	p.mu.Unlock()
	for _, trip := range trips {
		trip.SetError(err)
	}
}

// Len reports the number of requests currently awaiting a response.
func (p *PendingRequests) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.trips)
}
