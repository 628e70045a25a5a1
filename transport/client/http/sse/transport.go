package sse

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/flowmesh-io/mcpproxy"
	"github.com/flowmesh-io/mcpproxy/auth"
	"github.com/flowmesh-io/mcpproxy/transport"
	framebase "github.com/flowmesh-io/mcpproxy/transport/base"
)

// Transport posts outbound JSON-RPC frames using whichever dialect Client
// detected at construction: Modern POSTs to the fixed base URL carrying
// Mcp-Session-Id; Legacy POSTs to the session endpoint discovered over the
// discovery stream, carrying sessionId as a query parameter.
type Transport struct {
	c          *Client
	client     *http.Client
	host       string
	endpoint   string
	headers    http.Header
	credential auth.Credential
	sync.Mutex
}

// SendData sends data to the server using the dialect Client detected.
func (t *Transport) SendData(ctx context.Context, data []byte) error {
	if t.c.dialect == DialectLegacy {
		return t.sendLegacy(ctx, data)
	}
	return t.sendModern(ctx, data)
}

func (t *Transport) sendModern(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(data))
	if err != nil {
		return transport.NewIOError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	for k, v := range t.headers {
		req.Header[k] = v
	}
	sessionID, lastEventID := t.c.currentSession()
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}
	if t.c.protocolVersion != "" {
		req.Header.Set("MCP-Protocol-Version", t.c.protocolVersion)
	}
	if t.credential != nil {
		if err := t.credential.Apply(ctx, req); err != nil {
			return transport.NewConnectionError("failed to apply credential", err)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return transport.NewIOError("failed to send request", err)
	}

	if newID := resp.Header.Get("Mcp-Session-Id"); newID != "" {
		changed, err := t.c.captureModernSession(newID)
		if err != nil {
			_ = resp.Body.Close()
			return err
		}
		if changed {
			go t.c.ensureStream()
		}
	}

	if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "text/event-stream") {
		reader := bufio.NewReader(resp.Body)
		t.c.consumeSSE(ctx, reader, nil)
		_ = resp.Body.Close()
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		if resp.StatusCode == http.StatusAccepted && len(body) == 0 &&
			framebase.MessageType(data) == jsonrpc.MessageTypeRequest {
			return transport.NewHTTPError(resp.StatusCode, "modern dialect answered a request with 202 Accepted")
		}
		if len(body) > 0 {
			t.c.base.HandleMessage(ctx, body)
		}
		return nil
	default:
		return transport.NewHTTPError(resp.StatusCode, string(body))
	}
}

func (t *Transport) sendLegacy(ctx context.Context, data []byte) error {
	t.c.drainSessionChannel()
	endpoint := t.c.currentLegacyEndpoint()
	if endpoint == "" {
		return transport.NewNotConnectedError("legacy sse transport has not discovered a session endpoint yet")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return transport.NewIOError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.headers {
		req.Header[k] = v
	}
	if t.credential != nil {
		if err := t.credential.Apply(ctx, req); err != nil {
			return transport.NewConnectionError("failed to apply credential", err)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return transport.NewIOError("failed to send request", err)
	}

	switch {
	case resp.StatusCode == http.StatusAccepted:
		// The actual response arrives asynchronously over the discovery
		// stream, which resolves the pending request via base.HandleMessage.
		_ = resp.Body.Close()
		return nil
	case strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream"):
		reader := bufio.NewReader(resp.Body)
		t.c.consumeSSE(ctx, reader, t.c.onLegacyAnnouncement)
		_ = resp.Body.Close()
		return nil
	default:
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK:
			if len(body) > 0 {
				t.c.base.HandleMessage(ctx, body)
			}
			return nil
		default:
			return transport.NewHTTPError(resp.StatusCode, string(body))
		}
	}
}
