package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flowmesh-io/mcpproxy"
	"github.com/flowmesh-io/mcpproxy/interceptor"
	"github.com/flowmesh-io/mcpproxy/mcp"
	"github.com/flowmesh-io/mcpproxy/transport"
)

// mockTransport is a minimal transport.Transport stand-in whose responses
// are scripted by the test.
type mockTransport struct {
	mu sync.Mutex

	notifyErr error
	notified  []*jsonrpc.Notification

	sendFunc func(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error)
	sent     []*jsonrpc.Request
}

func (m *mockTransport) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified = append(m.notified, notification)
	return m.notifyErr
}

func (m *mockTransport) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	m.mu.Lock()
	m.sent = append(m.sent, request)
	m.mu.Unlock()
	return m.sendFunc(ctx, request)
}

func okInitializeResponse() func(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	return func(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
		result, _ := json.Marshal(mcp.InitializeResponse{
			ProtocolVersion: ProtocolModern,
			ServerInfo:      mcp.Implementation{Name: "test-server", Version: "1.0.0"},
		})
		return jsonrpc.NewResponse(request.Id, result), nil
	}
}

func connectedSession(t *testing.T, mt *mockTransport, opts ...Option) *Session {
	t.Helper()
	s := New(mt, opts...)
	if err := s.Connect(context.Background(), ClientInfo{Implementation: mcp.Implementation{Name: "test-client", Version: "1.0.0"}}); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	return s
}

func TestSession_ConnectHandshake(t *testing.T) {
	mt := &mockTransport{sendFunc: okInitializeResponse()}
	s := connectedSession(t, mt)

	if s.State() != Ready {
		t.Fatalf("expected Ready, got %s", s.State())
	}
	info := s.ServerInfo()
	if info == nil || info.Implementation.Name != "test-server" {
		t.Fatalf("expected captured server info, got %+v", info)
	}
	if len(mt.notified) != 1 || mt.notified[0].Method != MethodInitialized {
		t.Fatalf("expected notifications/initialized to be sent, got %+v", mt.notified)
	}
}

func TestSession_ConnectFailureEntersErrorState(t *testing.T) {
	mt := &mockTransport{sendFunc: func(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
		return jsonrpc.NewErrorResponse(request.Id, jsonrpc.NewInternalError(fmt.ErrUnsupported)), nil
	}}
	s := New(mt)
	err := s.Connect(context.Background(), ClientInfo{})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if s.State() != Error {
		t.Fatalf("expected Error state, got %s", s.State())
	}
}

func TestSession_SendRequiresReady(t *testing.T) {
	mt := &mockTransport{}
	s := New(mt)
	_, err := s.Send(context.Background(), "tools/list", nil)
	if err == nil {
		t.Fatalf("expected NotInitialized error before connect")
	}
}

func TestSession_SendSucceedsWhenReady(t *testing.T) {
	mt := &mockTransport{}
	mt.sendFunc = func(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
		if request.Method == "initialize" {
			return okInitializeResponse()(ctx, request)
		}
		return jsonrpc.NewResponse(request.Id, []byte(`{"ok":true}`)), nil
	}
	s := connectedSession(t, mt)

	resp, err := s.Send(context.Background(), "tools/list", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Result) != `{"ok":true}` {
		t.Fatalf("unexpected result: %s", resp.Result)
	}
	if s.Stats().RequestsSent != 1 {
		t.Fatalf("expected 1 request sent, got %d", s.Stats().RequestsSent)
	}
}

func TestSession_RetriesRetryableTransportErrors(t *testing.T) {
	var attempts int32
	mt := &mockTransport{}
	mt.sendFunc = func(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
		if request.Method == "initialize" {
			return okInitializeResponse()(ctx, request)
		}
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			return nil, transport.NewConnectionError("connection reset", nil)
		}
		return jsonrpc.NewResponse(request.Id, []byte(`{"ok":true}`)), nil
	}
	s := connectedSession(t, mt, WithRetryPolicy(time.Millisecond, 5))

	resp, err := s.Send(context.Background(), "tools/list", nil)
	if err != nil {
		t.Fatalf("expected retry to eventually succeed: %v", err)
	}
	if resp == nil {
		t.Fatalf("expected a response")
	}
	if atomic.LoadInt32(&attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if s.Stats().Retries != 2 {
		t.Fatalf("expected 2 retries recorded, got %d", s.Stats().Retries)
	}
}

func TestSession_NonRetryableErrorFailsImmediately(t *testing.T) {
	var attempts int32
	mt := &mockTransport{}
	mt.sendFunc = func(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
		if request.Method == "initialize" {
			return okInitializeResponse()(ctx, request)
		}
		atomic.AddInt32(&attempts, 1)
		return nil, transport.NewInvalidConfigError("bad config")
	}
	s := connectedSession(t, mt, WithRetryPolicy(time.Millisecond, 5))

	if _, err := s.Send(context.Background(), "tools/list", nil); err == nil {
		t.Fatalf("expected an error")
	}
	if atomic.LoadInt32(&attempts) != 1 {
		t.Fatalf("expected exactly 1 attempt for a non-retryable error, got %d", attempts)
	}
}

func TestSession_OutgoingChainCanBlockRequest(t *testing.T) {
	mt := &mockTransport{sendFunc: okInitializeResponse()}
	s := connectedSession(t, mt)

	// A zero-capacity rate limiter blocks every outgoing request; Send
	// always builds well-formed 2.0 frames, so this exercises the block
	// path without needing to forge an invalid one through Validation.
	limited := interceptor.NewChain(jsonrpc.NopLogger{})
	limited.Add(interceptor.NewRateLimit(time.Minute, 0))
	s.Chain = limited

	if _, err := s.Send(context.Background(), "tools/list", nil); err == nil {
		t.Fatalf("expected the rate limiter to block the request")
	}
}

func TestSession_NotificationDispatch(t *testing.T) {
	mt := &mockTransport{sendFunc: okInitializeResponse()}
	handler := &recordingHandler{}
	s := connectedSession(t, mt, WithNotificationHandler(handler))

	total := uint64(1)
	progressParams, _ := json.Marshal(mcp.ProgressNotification{Progress: 0.5, Total: &total})
	s.OnNotification(context.Background(), &jsonrpc.Notification{
		Jsonrpc: jsonrpc.Version, Method: "notifications/progress", Params: progressParams,
	})
	if handler.progress == nil || handler.progress.Progress != 0.5 {
		t.Fatalf("expected progress to be dispatched, got %+v", handler.progress)
	}

	s.OnNotification(context.Background(), &jsonrpc.Notification{
		Jsonrpc: jsonrpc.Version, Method: "notifications/tools/list_changed",
	})
	if !handler.toolsListChanged {
		t.Fatalf("expected tools list changed to be dispatched")
	}

	s.OnNotification(context.Background(), &jsonrpc.Notification{
		Jsonrpc: jsonrpc.Version, Method: "notifications/unknown",
	})
	if s.Stats().NotificationsRecvd != 3 {
		t.Fatalf("expected all 3 notifications counted, got %d", s.Stats().NotificationsRecvd)
	}
}

func TestSession_ServeIgnoresServerInitiatedRequests(t *testing.T) {
	mt := &mockTransport{sendFunc: okInitializeResponse()}
	s := connectedSession(t, mt)

	resp := &jsonrpc.Response{}
	s.Serve(context.Background(), &jsonrpc.Request{Id: 1, Jsonrpc: jsonrpc.Version, Method: "sampling/createMessage"}, resp)
	if resp.Error == nil {
		t.Fatalf("expected a method-not-found error response")
	}
}

type recordingHandler struct {
	progress         *mcp.ProgressNotification
	resourceUpdated  *mcp.ResourceUpdatedNotification
	toolsListChanged bool
}

func (r *recordingHandler) OnProgress(p mcp.ProgressNotification)          { r.progress = &p }
func (r *recordingHandler) OnResourceUpdated(p mcp.ResourceUpdatedNotification) { r.resourceUpdated = &p }
func (r *recordingHandler) OnResourcesListChanged()                             {}
func (r *recordingHandler) OnToolsListChanged()                                 { r.toolsListChanged = true }
func (r *recordingHandler) OnPromptsListChanged()                              {}
