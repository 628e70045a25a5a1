package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowmesh-io/mcpproxy"
	"github.com/flowmesh-io/mcpproxy/interceptor"
	"github.com/flowmesh-io/mcpproxy/mcp"
	"github.com/flowmesh-io/mcpproxy/transport"
)

// Default timeouts per spec.md §5: request 30s, initialize 10s.
const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultInitTimeout    = 10 * time.Second
	defaultRetryBase      = 200 * time.Millisecond
	defaultRetryMax       = 3
)

// Session drives one MCP client connection: the initialize handshake, the
// state machine, request/response correlation (delegated to the
// underlying transport.Transport's own pending-request table) with
// session-level retry, and notification dispatch. It implements
// transport.Handler so it can be installed directly as a transport's
// inbound handler.
type Session struct {
	Transport   transport.Transport
	Chain       *interceptor.Chain
	Handler     NotificationHandler
	Logger      jsonrpc.Logger
	RequestTimeout time.Duration
	InitTimeout    time.Duration
	RetryBase      time.Duration
	RetryMax       int

	mu         sync.RWMutex
	state      State
	errMsg     string
	serverInfo *ServerInfo

	statsMu sync.Mutex
	stats   Stats

	idCounter uint64
}

// New creates a Session bound to an already-constructed transport (a
// transport built by dial.New needs no separate connect step); Connect
// then performs the MCP-level initialize handshake on top of it.
func New(t transport.Transport, options ...Option) *Session {
	s := &Session{
		Transport:      t,
		Handler:        NopNotificationHandler{},
		Logger:         jsonrpc.DefaultLogger,
		RequestTimeout: DefaultRequestTimeout,
		InitTimeout:    DefaultInitTimeout,
		RetryBase:      defaultRetryBase,
		RetryMax:       defaultRetryMax,
		state:          Disconnected,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ServerInfo returns the info captured from the initialize response, or
// nil before Connect succeeds.
func (s *Session) ServerInfo() *ServerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverInfo
}

// Stats returns a snapshot of the session's counters.
func (s *Session) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) touch(update func(*Stats)) {
	s.statsMu.Lock()
	now := time.Now()
	s.stats.LastActivity = &now
	update(&s.stats)
	s.statsMu.Unlock()
}

// Connect performs the initialize handshake: it sends `initialize`
// (bypassing the Ready-only request gate), parses the result, sends
// `notifications/initialized`, captures ServerInfo, and transitions the
// session to Ready. On any failure the session moves to Error and the
// error is returned; connect() may be retried from Error or Disconnected.
func (s *Session) Connect(ctx context.Context, info ClientInfo) error {
	current := s.State()
	if current != Disconnected && current != Error {
		return jsonrpc.NewStateViolation(fmt.Sprintf("connect is not legal from state %s", current))
	}

	s.touch(func(st *Stats) { st.ConnectionAttempts++ })
	s.setState(Connecting)

	s.setState(Initializing)

	request, err := jsonrpc.NewRequest("initialize", info.toRequest())
	if err != nil {
		return s.failInit(fmt.Errorf("failed to build initialize request: %w", err))
	}
	request.Id = "req_init"

	ctx, cancel := context.WithTimeout(ctx, s.InitTimeout)
	defer cancel()

	response, err := s.Transport.Send(ctx, request)
	if err != nil {
		return s.failInit(err)
	}
	if response.Error != nil {
		return s.failInit(fmt.Errorf("server rejected initialize: %s", response.Error.Message))
	}

	var result mcp.InitializeResponse
	if err := json.Unmarshal(response.Result, &result); err != nil {
		return s.failInit(fmt.Errorf("malformed initialize result: %w", err))
	}

	if err := s.Notify(ctx, MethodInitialized, nil); err != nil {
		s.Logger.Warnf("failed to send notifications/initialized: %v", err)
	}

	negotiated := result.ProtocolVersion
	if !negotiated.IsSupported() {
		s.Logger.Warnf("server negotiated unsupported protocol version %q, continuing", result.ProtocolVersion)
	}

	s.mu.Lock()
	s.serverInfo = &ServerInfo{
		Implementation:  result.ServerInfo,
		ProtocolVersion: negotiated,
		Capabilities:    result.Capabilities,
		ConnectedAt:     time.Now(),
	}
	s.state = Ready
	s.mu.Unlock()

	return nil
}

func (s *Session) failInit(cause error) error {
	s.mu.Lock()
	s.state = Error
	s.errMsg = cause.Error()
	s.mu.Unlock()
	s.touch(func(st *Stats) { st.Errors++ })
	return jsonrpc.NewInitializationFailed(cause.Error())
}

// Disconnect tears the session back down to Disconnected, regardless of
// its current state.
func (s *Session) Disconnect() {
	s.setState(Disconnected)
}

// Send issues a JSON-RPC request through the outgoing/incoming interceptor
// chain and the underlying transport, retrying retryable transport
// failures with exponential backoff up to RetryMax times after the first
// attempt. It is only
// legal while the session is Ready.
func (s *Session) Send(ctx context.Context, method string, params interface{}) (*jsonrpc.Response, error) {
	if s.State() != Ready {
		return nil, jsonrpc.NewNotInitialized()
	}

	request, err := jsonrpc.NewRequest(method, params)
	if err != nil {
		return nil, err
	}
	request.Id = fmt.Sprintf("req_%d", atomic.AddUint64(&s.idCounter, 1))

	if s.Chain != nil {
		result, err := s.Chain.Process(ctx, interceptor.Outgoing, jsonrpc.NewRequestMessage(request), "")
		if err != nil {
			return nil, err
		}
		if result.Block {
			return nil, jsonrpc.NewRequestBlocked(result.Reasoning)
		}
		request = result.Message.JsonRpcRequest
	}

	ctx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	var response *jsonrpc.Response
	var lastErr error
	for attempt := 0; attempt <= s.RetryMax; attempt++ {
		if attempt > 0 {
			s.touch(func(st *Stats) { st.Retries++ })
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.RetryBase * time.Duration(1<<uint(attempt-1))):
			}
		}

		response, lastErr = s.Transport.Send(ctx, request)
		if lastErr == nil {
			break
		}

		if !isRetryable(lastErr) || attempt == s.RetryMax {
			s.touch(func(st *Stats) { st.Errors++ })
			return nil, lastErr
		}
	}

	s.touch(func(st *Stats) {
		st.RequestsSent++
		st.ResponsesReceived++
	})

	if s.Chain != nil {
		result, err := s.Chain.Process(ctx, interceptor.Incoming, jsonrpc.NewResponseMessage(response), "")
		if err != nil {
			return nil, err
		}
		if result.Block {
			return nil, jsonrpc.NewResponseBlocked(result.Reasoning)
		}
		response = result.Message.JsonRpcResponse
	}

	return response, nil
}

// Notify issues a fire-and-forget JSON-RPC notification. Unlike Send it is
// legal during Initializing (notifications/initialized uses this path).
func (s *Session) Notify(ctx context.Context, method string, params interface{}) error {
	notification, err := jsonrpc.NewNotification(method, params)
	if err != nil {
		return err
	}

	message := jsonrpc.NewNotificationMessage(notification)
	if s.Chain != nil {
		result, err := s.Chain.Process(ctx, interceptor.Outgoing, message, "")
		if err != nil {
			return err
		}
		if result.Block {
			return jsonrpc.NewRequestBlocked(result.Reasoning)
		}
		message = result.Message
	}

	if err := s.Transport.Notify(ctx, message.JsonRpcNotification); err != nil {
		s.touch(func(st *Stats) { st.Errors++ })
		return err
	}
	s.touch(func(st *Stats) { st.NotificationsSent++ })
	return nil
}

// isRetryable reports whether err is a retryable *transport.Error. Any
// other error (including context deadline/cancel, or transport.ErrTimeout
// from a round trip) is treated as non-retryable.
func isRetryable(err error) bool {
	var te *transport.Error
	return errors.As(err, &te) && te.IsRetryable()
}

// Serve implements transport.Handler for server-initiated requests.
// Server-to-client requests are rare in MCP (e.g. sampling) and are not
// handled by the core client: they are logged and answered with
// MethodNotFound.
func (s *Session) Serve(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	s.Logger.Warnf("ignoring server-initiated request %q", request.Method)
	response.Error = jsonrpc.NewMethodNotFound(request.Method)
}

// OnNotification implements transport.Handler, dispatching the five
// recognized MCP notification methods to Handler; unknown methods are
// logged and discarded.
func (s *Session) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {
	s.touch(func(st *Stats) { st.NotificationsRecvd++ })

	switch notification.Method {
	case MethodProgress:
		var params mcp.ProgressNotification
		if err := unmarshalParams(notification.Params, &params); err != nil {
			s.Logger.Warnf("malformed %s params: %v", notification.Method, err)
			return
		}
		s.Handler.OnProgress(params)
	case MethodResourceUpdated:
		var params mcp.ResourceUpdatedNotification
		if err := unmarshalParams(notification.Params, &params); err != nil {
			s.Logger.Warnf("malformed %s params: %v", notification.Method, err)
			return
		}
		s.Handler.OnResourceUpdated(params)
	case MethodResourcesListChanged:
		s.Handler.OnResourcesListChanged()
	case MethodToolsListChanged:
		s.Handler.OnToolsListChanged()
	case MethodPromptsListChanged:
		s.Handler.OnPromptsListChanged()
	default:
		s.Logger.Warnf("unrecognized notification method %q, discarding", notification.Method)
	}
}

func unmarshalParams(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
