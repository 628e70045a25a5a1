package sse

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs/url"

	"github.com/flowmesh-io/mcpproxy"
	"github.com/flowmesh-io/mcpproxy/auth"
	"github.com/flowmesh-io/mcpproxy/transport"
	"github.com/flowmesh-io/mcpproxy/transport/client/base"
)

// legacyDiscoveryPaths are tried in order, per §4.4.3, until one accepts
// the long-lived discovery GET.
var legacyDiscoveryPaths = []string{"/events", "/session", "/discover"}

// Client drives the dual-dialect HTTP+SSE transport (§4.4): Modern posts
// every frame to the base URL and carries its session in the
// Mcp-Session-Id header; Legacy discovers its session id out-of-band over
// a long-lived GET and carries it as a sessionId query parameter. Both
// dialects share the same event-source consumer (consumeSSE) and the same
// Last-Event-ID based resume behavior.
type Client struct {
	dialect Dialect

	handshakeTimeout time.Duration
	baseURL          string
	host             string
	protocolVersion  string

	base       *base.Client
	counters   transport.Counters
	done       chan bool
	httpClient *http.Client
	credential auth.Credential
	headers    map[string]string
	transport  *Transport

	sessionMu         sync.Mutex
	sessionID         string // Modern: Mcp-Session-Id; Legacy: the bare id extracted from an announcement
	legacyRequestPath string // Legacy: absolute URL the next POST targets
	lastEventID       string
	retryHint         time.Duration

	streamMu     sync.Mutex
	streamActive bool

	ready     chan struct{}
	readyOnce sync.Once

	// sessionCh carries fresh Legacy session announcements; the request
	// path drains it (non-blocking) before every outgoing frame so a
	// mid-flight session replacement is picked up automatically.
	sessionCh chan string
}

// Info reports connection counters and metadata for this transport.
func (c *Client) Info() transport.Info {
	return c.counters.Snapshot()
}

func (c *Client) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	if err := c.base.Notify(ctx, notification); err != nil {
		c.counters.IncErrors()
		return err
	}
	c.counters.IncNotificationsSent()
	return nil
}

func (c *Client) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	c.counters.IncRequestsSent()
	response, err := c.base.Send(ctx, request)
	if err != nil {
		c.counters.IncErrors()
	}
	return response, err
}

// New opens a dual-dialect HTTP+SSE transport connection to cfg.BaseURL,
// detecting the dialect from its path per §4.4.1.
func New(ctx context.Context, cfg *transport.HttpSseConfig, options ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dialect, matched := detectDialect(cfg.BaseURL)
	schema := url.Scheme(cfg.BaseURL, "http")
	host := url.Host(cfg.BaseURL)
	hostURL := fmt.Sprintf("%s://%s", schema, host)
	httpClient := &http.Client{Timeout: cfg.Timeout}

	ret := &Client{
		dialect:          dialect,
		handshakeTimeout: 30 * time.Second,
		baseURL:          cfg.BaseURL,
		host:             hostURL,
		protocolVersion:  "2025-06-18",
		done:             make(chan bool),
		httpClient:       httpClient,
		headers:          cfg.Headers,
		credential:       cfg.Auth,
		ready:            make(chan struct{}),
		sessionCh:        make(chan string, 1),
		base: &base.Client{
			RunTimeout: 5 * time.Minute,
			Pending:    transport.NewPendingRequests(),
			Handler:    &base.Handler{},
			Logger:     jsonrpc.DefaultLogger,
		},
	}
	ret.transport = &Transport{
		c:          ret,
		client:     httpClient,
		host:       hostURL,
		endpoint:   cfg.BaseURL,
		headers:    toHTTPHeader(cfg.Headers),
		credential: cfg.Auth,
	}
	for _, opt := range options {
		opt(ret)
	}
	ret.base.Transport = ret.transport
	ret.counters.SetMetadata("base_url", cfg.BaseURL)
	ret.counters.SetMetadata("dialect", string(dialect))

	if !matched {
		ret.base.Logger.Warnf("sse transport: could not classify dialect from path %q, defaulting to Modern", cfg.BaseURL)
	}
	if isLocalHostURL(host) {
		ret.base.Logger.Infof("sse transport: connecting to local host %s without Origin header validation", host)
	}

	if dialect == DialectModern {
		ret.counters.SetConnected(true)
		return ret, nil
	}

	go ret.runLegacyDiscovery()
	if err := ret.waitForInitialSession(ctx); err != nil {
		ret.counters.IncErrors()
		return nil, err
	}
	ret.counters.SetConnected(true)
	return ret, nil
}

func isLocalHostURL(hostport string) bool {
	host := hostport
	if idx := strings.LastIndex(hostport, ":"); idx >= 0 {
		host = hostport[:idx]
	}
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

func (c *Client) waitForInitialSession(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.handshakeTimeout)
	defer cancel()
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return transport.NewConnectionError("legacy sse handshake failed", fmt.Errorf("no session announced within %s", c.handshakeTimeout))
	case <-c.done:
		return transport.NewConnectionError("legacy sse handshake failed", fmt.Errorf("client closed"))
	}
}

// onLegacyAnnouncement is consumeSSE's announce callback for the Legacy
// discovery stream: it validates and records the session id, publishes it
// on sessionCh for the request path to pick up, and unblocks the initial
// handshake wait.
func (c *Client) onLegacyAnnouncement(data string) {
	id, ok := extractSessionID(data)
	if !ok {
		return
	}
	if err := transport.ValidateSessionID(id); err != nil {
		c.base.Logger.Warnf("sse transport: ignoring invalid legacy session id: %v", err)
		return
	}
	path := c.baseURL
	if p, ok := extractSessionPath(data); ok {
		path = c.host + p
	} else {
		path = appendSessionQuery(path, id)
	}

	c.sessionMu.Lock()
	c.sessionID = id
	c.legacyRequestPath = path
	c.sessionMu.Unlock()

	select {
	case c.sessionCh <- id:
	default:
		select {
		case <-c.sessionCh:
		default:
		}
		select {
		case c.sessionCh <- id:
		default:
		}
	}
	c.readyOnce.Do(func() { close(c.ready) })
}

func appendSessionQuery(base, id string) string {
	if strings.Contains(base, "?") {
		return base + "&sessionId=" + id
	}
	return base + "?sessionId=" + id
}

// drainSessionChannel consumes any fresh Legacy session announcements
// queued since the last request, per §4.4.3's "drains that channel
// (non-blocking) before every outgoing frame".
func (c *Client) drainSessionChannel() {
	for {
		select {
		case <-c.sessionCh:
		default:
			return
		}
	}
}

func (c *Client) currentLegacyEndpoint() string {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	return c.legacyRequestPath
}

func (c *Client) currentSession() (sessionID, lastEventID string) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	return c.sessionID, c.lastEventID
}

// captureModernSession records and validates a session id announced via
// the Mcp-Session-Id response header, per §4.4.2/§4.4.5. It reports
// whether this is a newly observed session, so the caller can start the
// background GET stream exactly once.
func (c *Client) captureModernSession(sessionID string) (changed bool, err error) {
	if err := transport.ValidateSessionID(sessionID); err != nil {
		return false, err
	}
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	changed = c.sessionID != sessionID
	c.sessionID = sessionID
	return changed, nil
}

func (c *Client) rememberLastEventID(id string) {
	if id == "" {
		return
	}
	c.sessionMu.Lock()
	c.lastEventID = id
	c.sessionMu.Unlock()
}

func (c *Client) rememberRetryHint(ms int) {
	if ms <= 0 {
		return
	}
	c.sessionMu.Lock()
	c.retryHint = time.Duration(ms) * time.Millisecond
	c.sessionMu.Unlock()
}

func (c *Client) nextBackoff(current, min, max time.Duration) time.Duration {
	c.sessionMu.Lock()
	hint := c.retryHint
	c.sessionMu.Unlock()
	if hint > 0 {
		return hint
	}
	next := current * 2
	if next > max {
		next = max
	}
	if next < min {
		next = min
	}
	return next
}

// consumeSSE drives an event-source parser over reader, implementing the
// shared §4.4.4 behavior: data that looks like a Legacy session
// announcement is routed to announce (when set) rather than treated as a
// JSON-RPC frame; every other event is forwarded to the correlation
// layer; every id seen updates the resume cursor; a retry: directive
// updates the reconnect backoff hint.
func (c *Client) consumeSSE(ctx context.Context, reader *bufio.Reader, announce func(data string)) {
	for {
		event, err := c.readEvent(ctx, reader)
		if err != nil {
			if err != io.EOF {
				c.counters.IncErrors()
				c.base.SetError(err)
			}
			return
		}
		if event.ID != "" {
			c.rememberLastEventID(event.ID)
		}
		if event.RetryMillis > 0 {
			c.rememberRetryHint(event.RetryMillis)
		}
		if event.Data == "" {
			continue
		}
		if isSessionAnnouncement(event.Data) {
			if announce != nil {
				announce(event.Data)
			}
			continue
		}
		c.counters.IncResponsesReceived()
		c.base.HandleMessage(ctx, []byte(event.Data))
	}
}

func (c *Client) readEvent(ctx context.Context, reader *bufio.Reader) (*Event, error) {
	var hasData, hasEvent bool
	event := &Event{}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				if hasData || hasEvent {
					return event, nil
				}
				return nil, io.EOF
			}
			select {
			case <-c.done:
				return event, io.EOF
			default:
				return nil, transport.NewIOError("sse stream error", err)
			}
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if hasData || hasEvent {
				return event, nil
			}
			continue
		}
		switch {
		case strings.HasPrefix(line, "id:"):
			event.ID = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
		case strings.HasPrefix(line, "event:"):
			event.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			hasEvent = true
		case strings.HasPrefix(line, "data:"):
			event.Data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			hasData = true
		case strings.HasPrefix(line, "retry:"):
			if ms, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "retry:"))); err == nil {
				event.RetryMillis = ms
			}
		}
	}
}

// resumeSSEConnection opens a new GET carrying Last-Event-ID (when known)
// and drives it through consumeSSE until it errs, implementing the
// resume-after-drop behavior from §4.4.4.
func (c *Client) resumeSSEConnection(ctx context.Context, buildRequest func(ctx context.Context) (*http.Request, error), announce func(string)) error {
	req, err := buildRequest(ctx)
	if err != nil {
		return err
	}
	if c.credential != nil {
		if err := c.credential.Apply(ctx, req); err != nil {
			return transport.NewConnectionError("failed to apply credential", err)
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.counters.IncErrors()
		return transport.NewConnectionError("failed to open sse stream", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		c.counters.IncErrors()
		return transport.NewHTTPError(resp.StatusCode, "failed to open sse stream")
	}
	reader := bufio.NewReader(resp.Body)
	c.consumeSSE(ctx, reader, announce)
	_ = resp.Body.Close()
	return nil
}

// ensureStream starts the Modern dialect's background GET stream once a
// session id is known; it is idempotent, matching the 1:1
// client/upstream ownership model.
func (c *Client) ensureStream() {
	c.streamMu.Lock()
	if c.streamActive {
		c.streamMu.Unlock()
		return
	}
	c.streamActive = true
	c.streamMu.Unlock()
	go c.runModernStream()
}

func (c *Client) runModernStream() {
	backoff := 500 * time.Millisecond
	const maxBackoff = 10 * time.Second
	for {
		select {
		case <-c.done:
			return
		default:
		}
		err := c.resumeSSEConnection(context.Background(), c.newModernStreamRequest, nil)
		if err != nil {
			time.Sleep(backoff)
			backoff = c.nextBackoff(backoff, 500*time.Millisecond, maxBackoff)
			continue
		}
		backoff = 500 * time.Millisecond
	}
}

func (c *Client) newModernStreamRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, transport.NewIOError("failed to create request", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	sessionID, lastEventID := c.currentSession()
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}
	if c.protocolVersion != "" {
		req.Header.Set("MCP-Protocol-Version", c.protocolVersion)
	}
	return req, nil
}

func (c *Client) runLegacyDiscovery() {
	backoff := time.Second
	const maxBackoff = 5 * time.Second
	idx := 0
	for {
		select {
		case <-c.done:
			return
		default:
		}
		path := legacyDiscoveryPaths[idx%len(legacyDiscoveryPaths)]
		err := c.resumeSSEConnection(context.Background(), c.newLegacyDiscoveryRequest(path), c.onLegacyAnnouncement)
		if err != nil {
			idx++
			time.Sleep(backoff)
			backoff = c.nextBackoff(backoff, time.Second, maxBackoff)
			continue
		}
		backoff = time.Second
		time.Sleep(backoff)
	}
}

func (c *Client) newLegacyDiscoveryRequest(path string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url.Join(c.host, path), nil)
		if err != nil {
			return nil, transport.NewIOError("failed to create request", err)
		}
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Connection", "keep-alive")
		if _, lastEventID := c.currentSession(); lastEventID != "" {
			req.Header.Set("Last-Event-ID", lastEventID)
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}
		return req, nil
	}
}

func toHTTPHeader(headers map[string]string) http.Header {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return h
}
