package streamable

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
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

const sseMime = "text/event-stream"

// Client implements the strict Modern (2025-03-26 / 2025-06-18) Streamable
// HTTP transport: handshake is a POST that returns a session id header;
// the server may answer in-line with JSON or upgrade that same response to
// an SSE stream; a separate long-lived GET with the session header
// receives server-initiated requests and notifications.
type Client struct {
	endpointURL string
	base        *base.Client
	counters    transport.Counters

	httpClient       *http.Client
	handshakeTimeout time.Duration
	credential       auth.Credential

	sessionID string

	lastIDGet  uint64
	lastIDPost uint64

	transport *Transport

	// sessionHeaderName configures the HTTP header name carrying session id.
	// Defaults to "Mcp-Session-Id".
	sessionHeaderName string

	// protocolVersion, if set, will be sent as MCP-Protocol-Version header
	// on all HTTP requests (POST/GET) made by this client.
	protocolVersion string

	streamMu     sync.Mutex
	streamActive bool
}

// Info reports connection counters and metadata for this transport.
func (c *Client) Info() transport.Info {
	return c.counters.Snapshot()
}

// sessionContext returns a context enriched with the current MCP session id. If
// no session id has been established yet it returns the original context.
func (c *Client) sessionContext(ctx context.Context) context.Context {
	if c.sessionID == "" {
		return ctx
	}
	return context.WithValue(ctx, jsonrpc.SessionKey, c.sessionID)
}

// Notify sends JSON-RPC notification.
func (c *Client) Notify(ctx context.Context, n *jsonrpc.Notification) error {
	if err := c.base.Notify(c.sessionContext(ctx), n); err != nil {
		c.counters.IncErrors()
		return err
	}
	c.counters.IncNotificationsSent()
	return nil
}

// Send sends JSON-RPC request and waits for response.
func (c *Client) Send(ctx context.Context, r *jsonrpc.Request) (*jsonrpc.Response, error) {
	c.counters.IncRequestsSent()
	response, err := c.base.Send(c.sessionContext(ctx), r)
	if err != nil {
		c.counters.IncErrors()
	}
	return response, err
}

func (c *Client) openStream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL, nil)
	if err != nil {
		return transport.NewIOError("failed to create request", err)
	}
	req.Header.Set("Accept", sseMime)
	req.Header.Set(c.sessionHeaderName, c.sessionID)
	if c.protocolVersion != "" {
		req.Header.Set("MCP-Protocol-Version", c.protocolVersion)
	}
	if c.lastIDGet > 0 {
		req.Header.Set("Last-Event-ID", fmt.Sprintf("%d", c.lastIDGet))
	}
	if c.credential != nil {
		if err := c.credential.Apply(ctx, req); err != nil {
			return transport.NewConnectionError("failed to apply credential", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transport.NewConnectionError("failed to open stream", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return transport.NewHTTPError(resp.StatusCode, "failed to open stream")
	}

	reader := bufio.NewReader(resp.Body)
	c.consumeSSEGet(ctx, reader)
	_ = resp.Body.Close()
	return nil
}

// consumeSSEGet consumes events on the long-lived GET stream and updates lastIDGet.
func (c *Client) consumeSSEGet(ctx context.Context, reader *bufio.Reader) {
	for {
		evt, err := readSSE(ctx, reader)
		if err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF {
				c.counters.IncErrors()
				c.base.SetError(err)
			}
			return
		}
		if evt.ID != "" {
			if v, err := strconv.ParseUint(strings.TrimSpace(evt.ID), 10, 64); err == nil {
				c.lastIDGet = v
			}
		}
		if evt.Event != "message" || strings.TrimSpace(evt.Data) == "" {
			continue
		}
		c.counters.IncResponsesReceived()
		c.base.HandleMessage(c.sessionContext(ctx), []byte(evt.Data))
	}
}

// consumeSSEPost consumes events on a POST-initiated SSE stream and updates lastIDPost.
func (c *Client) consumeSSEPost(ctx context.Context, reader *bufio.Reader) {
	for {
		evt, err := readSSE(ctx, reader)
		if err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF {
				c.counters.IncErrors()
				c.base.SetError(err)
			}
			return
		}
		if evt.ID != "" {
			if v, err := strconv.ParseUint(strings.TrimSpace(evt.ID), 10, 64); err == nil {
				c.lastIDPost = v
			}
		}
		if evt.Event != "message" || strings.TrimSpace(evt.Data) == "" {
			continue
		}
		c.counters.IncResponsesReceived()
		c.base.HandleMessage(c.sessionContext(ctx), []byte(evt.Data))
	}
}

type sseEvent struct {
	ID    string
	Event string
	Data  string
}

// readSSE reads a single SSE event (terminated by blank line).
func readSSE(ctx context.Context, reader *bufio.Reader) (*sseEvent, error) {
	var hasData, hasEvent bool
	ev := &sseEvent{}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					return ev, io.EOF
				}
				return nil, err
			}
			line = strings.TrimRight(line, "\r\n")
			if line == "" {
				if hasData || hasEvent {
					return ev, nil
				}
				continue
			}
			if strings.HasPrefix(line, "id:") {
				ev.ID = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
			} else if strings.HasPrefix(line, "event:") {
				ev.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
				hasEvent = true
			} else if strings.HasPrefix(line, "data:") {
				ev.Data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
				hasData = true
			}
		}
	}
}

// ensureStream starts a background reconnection loop for the GET SSE stream once a session id exists.
func (c *Client) ensureStream() {
	c.streamMu.Lock()
	if c.streamActive {
		c.streamMu.Unlock()
		return
	}
	c.streamActive = true
	c.streamMu.Unlock()

	go c.runStream()
}

func (c *Client) runStream() {
	backoff := 500 * time.Millisecond
	maxBackoff := 10 * time.Second
	for {
		if c.sessionID == "" {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		ctx := context.Background()
		if err := c.openStream(ctx); err != nil {
			time.Sleep(backoff)
			if backoff < maxBackoff {
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
			continue
		}
		backoff = 500 * time.Millisecond
	}
}

// New initialises Client for cfg.BaseURL. It makes no request; the first
// Send or Notify POST carries the handshake that yields the session id.
func New(ctx context.Context, cfg *transport.HttpStreamConfig, options ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	schema := url.Scheme(cfg.BaseURL, "http")
	host := url.Host(cfg.BaseURL)

	jar, _ := cookiejar.New(nil)
	httpClient := &http.Client{Jar: jar, Timeout: cfg.Timeout}

	c := &Client{
		endpointURL:      cfg.BaseURL,
		httpClient:       httpClient,
		handshakeTimeout: 30 * time.Second,
		credential:       cfg.Auth,
	}
	c.sessionHeaderName = "Mcp-Session-Id"
	c.protocolVersion = "2025-06-18"

	c.transport = &Transport{
		client:  httpClient,
		headers: toHTTPHeader(cfg.Headers),
		host:    fmt.Sprintf("%s://%s", schema, host),
		c:       c,
	}
	if cfg.Compression {
		c.transport.headers.Set("Accept-Encoding", "gzip")
	}

	c.base = &base.Client{
		RunTimeout: 15 * time.Minute,
		Pending:    transport.NewPendingRequests(),
		Handler:    &base.Handler{},
		Logger:     jsonrpc.DefaultLogger,
	}
	c.base.Transport = c.transport

	for _, opt := range options {
		opt(c)
	}

	c.transport.client = c.httpClient
	c.transport.setEndpoint(c.endpointURL)
	if c.protocolVersion != "" {
		c.transport.headers.Set("MCP-Protocol-Version", c.protocolVersion)
	}
	c.counters.SetMetadata("base_url", cfg.BaseURL)

	return c, nil
}

func toHTTPHeader(headers map[string]string) http.Header {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return h
}
