package interceptor

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/flowmesh-io/mcpproxy"
)

// ChainStats is the aggregate counterpart to Stats, accumulated across
// every interceptor in a Chain rather than per interceptor.
type ChainStats struct {
	TotalMessagesProcessed uint64
	TotalModificationsMade uint64
	TotalMessagesBlocked   uint64
	AvgProcessingTimeMs    float64
	MessagesByMethod       map[string]uint64
}

// Chain is a priority-ordered, mutable set of interceptors run over every
// frame the proxy forwards, in both directions.
type Chain struct {
	logger jsonrpc.Logger

	mu           sync.RWMutex
	interceptors []Interceptor

	statsMu          sync.Mutex
	processed        uint64
	modifications    uint64
	blocked          uint64
	avgMs            float64
	messagesByMethod map[string]uint64
}

// NewChain creates an empty chain. A nil logger disables interceptor
// failure logging.
func NewChain(logger jsonrpc.Logger) *Chain {
	return &Chain{
		logger:           logger,
		messagesByMethod: make(map[string]uint64),
	}
}

// Add inserts interceptor into the chain, re-sorting by priority; among
// equal priorities, insertion order is preserved (stable sort).
func (c *Chain) Add(i Interceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interceptors = append(c.interceptors, i)
	sort.SliceStable(c.interceptors, func(a, b int) bool {
		return c.interceptors[a].Priority() < c.interceptors[b].Priority()
	})
}

// Remove drops the interceptor registered under name, if any, returning
// whether one was found.
func (c *Chain) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for idx, existing := range c.interceptors {
		if existing.Name() == name {
			c.interceptors = append(c.interceptors[:idx], c.interceptors[idx+1:]...)
			return true
		}
	}
	return false
}

// Interceptors returns a snapshot of the chain's members, in priority order.
func (c *Chain) Interceptors() []Interceptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Interceptor, len(c.interceptors))
	copy(out, c.interceptors)
	return out
}

// Process runs every applicable interceptor, in priority order, over
// message for the given direction. It returns the aggregate result: a
// block carries the blocking interceptor's reasoning; otherwise the
// (possibly modified) message is returned with accumulated reasoning and
// averaged confidence from every interceptor that modified it.
func (c *Chain) Process(ctx context.Context, direction Direction, message *jsonrpc.Message, sessionID string) (InterceptionResult, error) {
	start := time.Now()
	members := c.Interceptors()

	mc := &MessageContext{
		Direction: direction,
		Timestamp: start,
		SessionID: sessionID,
		Metadata:  make(map[string]interface{}),
	}

	current := message
	modified := false
	var reasonings []string
	var confidences []float64

	for _, member := range members {
		select {
		case <-ctx.Done():
			return InterceptionResult{Message: current}, ctx.Err()
		default:
		}

		mc.Message = current
		if !member.ShouldIntercept(mc) {
			continue
		}

		callStart := time.Now()
		result, err := member.Intercept(mc)
		elapsed := time.Since(callStart)

		if err != nil {
			if c.logger != nil {
				c.logger.Warnf("interceptor %s failed, continuing chain: %v", member.Name(), err)
			}
			if recorder, ok := member.(statsRecorder); ok {
				recorder.record(elapsed, false, false)
			}
			continue
		}

		if recorder, ok := member.(statsRecorder); ok {
			recorder.record(elapsed, result.Modified, result.Block)
		}

		if result.Block {
			c.recordProcessed(message.Method(), false, true, time.Since(start))
			return InterceptionResult{Block: true, Reasoning: result.Reasoning, Message: current}, nil
		}

		if result.Modified && result.Message != nil {
			modified = true
			current = result.Message
			if result.Reasoning != "" {
				reasonings = append(reasonings, result.Reasoning)
			}
			confidences = append(confidences, result.Confidence)
		}
	}

	c.recordProcessed(message.Method(), modified, false, time.Since(start))

	if modified {
		return InterceptionResult{
			Modified:   true,
			Message:    current,
			Reasoning:  strings.Join(reasonings, "; "),
			Confidence: average(confidences),
		}, nil
	}
	return InterceptionResult{Message: current}, nil
}

func (c *Chain) recordProcessed(method string, modified, blocked bool, elapsed time.Duration) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.processed++
	if modified {
		c.modifications++
	}
	if blocked {
		c.blocked++
	}
	ms := float64(elapsed.Nanoseconds()) / 1e6
	c.avgMs += (ms - c.avgMs) / float64(c.processed)
	if method != "" {
		c.messagesByMethod[method]++
	}
}

// Stats returns a snapshot of the chain's aggregate counters.
func (c *Chain) Stats() ChainStats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	byMethod := make(map[string]uint64, len(c.messagesByMethod))
	for k, v := range c.messagesByMethod {
		byMethod[k] = v
	}
	return ChainStats{
		TotalMessagesProcessed: c.processed,
		TotalModificationsMade: c.modifications,
		TotalMessagesBlocked:   c.blocked,
		AvgProcessingTimeMs:    c.avgMs,
		MessagesByMethod:       byMethod,
	}
}

// InterceptorStats returns a snapshot of every member interceptor's own
// counters, keyed by name.
func (c *Chain) InterceptorStats() map[string]Stats {
	members := c.Interceptors()
	out := make(map[string]Stats, len(members))
	for _, member := range members {
		out[member.Name()] = member.Stats()
	}
	return out
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
