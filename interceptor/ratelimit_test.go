package interceptor

import (
	"testing"
	"time"

	"github.com/flowmesh-io/mcpproxy"
)

func TestRateLimit_BlocksAfterMax(t *testing.T) {
	rl := NewRateLimit(time.Minute, 2)
	mc := &MessageContext{Direction: Outgoing, Message: requestMessage("tools/call", `{}`)}

	for i := 0; i < 2; i++ {
		result, err := rl.Intercept(mc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Block {
			t.Fatalf("request %d should not be blocked", i)
		}
	}
	result, err := rl.Intercept(mc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Block {
		t.Fatalf("expected third request to be blocked")
	}
}

func TestRateLimit_WindowSlides(t *testing.T) {
	rl := NewRateLimit(20*time.Millisecond, 1)
	mc := &MessageContext{Direction: Outgoing, Message: requestMessage("tools/call", `{}`)}

	if result, err := rl.Intercept(mc); err != nil || result.Block {
		t.Fatalf("first request should pass, got block=%v err=%v", result.Block, err)
	}
	if result, err := rl.Intercept(mc); err != nil || !result.Block {
		t.Fatalf("second request within window should be blocked, got block=%v err=%v", result.Block, err)
	}
	time.Sleep(30 * time.Millisecond)
	if result, err := rl.Intercept(mc); err != nil || result.Block {
		t.Fatalf("request after window should pass, got block=%v err=%v", result.Block, err)
	}
}

func TestRateLimit_SkipsNotificationsAndResponses(t *testing.T) {
	rl := NewRateLimit(time.Minute, 0)
	notifMC := &MessageContext{Direction: Outgoing, Message: jsonrpc.NewNotificationMessage(&jsonrpc.Notification{Jsonrpc: jsonrpc.Version, Method: "ping"})}
	if rl.ShouldIntercept(notifMC) {
		t.Fatalf("rate limiter must not apply to notifications")
	}

	respMC := &MessageContext{Direction: Incoming, Message: jsonrpc.NewResponseMessage(&jsonrpc.Response{Id: 1, Jsonrpc: jsonrpc.Version, Result: []byte("1")})}
	if rl.ShouldIntercept(respMC) {
		t.Fatalf("rate limiter must not apply to responses")
	}

	incomingReq := &MessageContext{Direction: Incoming, Message: requestMessage("tools/call", `{}`)}
	if rl.ShouldIntercept(incomingReq) {
		t.Fatalf("rate limiter must only apply to outgoing requests")
	}
}

func TestRateLimit_PerMethodIsolation(t *testing.T) {
	rl := NewRateLimit(time.Minute, 1)
	a := &MessageContext{Direction: Outgoing, Message: requestMessage("tools/call", `{}`)}
	b := &MessageContext{Direction: Outgoing, Message: requestMessage("resources/list", `{}`)}

	if result, _ := rl.Intercept(a); result.Block {
		t.Fatalf("first tools/call should pass")
	}
	if result, _ := rl.Intercept(b); result.Block {
		t.Fatalf("resources/list must have its own independent window")
	}
}
