package streamable

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/flowmesh-io/mcpproxy/transport"
)

// Transport implements client side sender for the Streamable HTTP
// transport. It expects that the configured endpoint (cfg.BaseURL) is
// capable of accepting a POST request with a JSON payload and will
// either respond synchronously with JSON, or upgrade to an SSE stream
// for the duration of that single response.
type Transport struct {
	client   *http.Client
	headers  http.Header
	endpoint string
	host     string
	c        *Client
	sync.Mutex
}

func (t *Transport) setEndpoint(uri string) {
	t.endpoint = uri
}

// SendData forwards JSON-RPC message data to the server using HTTP POST.
func (t *Transport) SendData(ctx context.Context, data []byte) error {
	t.Lock()

	if t.endpoint == "" {
		t.Unlock()
		return transport.NewNotConnectedError("streamable transport has no endpoint configured")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.endpoint, bytes.NewReader(data))
	if err != nil {
		t.Unlock()
		return transport.NewIOError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	for k, v := range t.headers {
		req.Header[k] = v
	}
	if t.c.credential != nil {
		if err := t.c.credential.Apply(ctx, req); err != nil {
			t.Unlock()
			return transport.NewConnectionError("failed to apply credential", err)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		t.Unlock()
		return transport.NewIOError("failed to send request", err)
	}
	if sessionID := resp.Header.Get(t.c.sessionHeaderName); sessionID != "" {
		if t.c.sessionID != sessionID {
			t.c.sessionID = sessionID
			t.headers.Set(t.c.sessionHeaderName, sessionID)
			go t.c.ensureStream()
		}
	}

	if t.c.sessionID == "" {
		t.Unlock()
		_ = resp.Body.Close()
		return transport.NewConnectionError("streamable handshake failed", fmt.Errorf("missing %s header", t.c.sessionHeaderName))
	}

	if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "text/event-stream") {
		t.Unlock()
		reader := bufio.NewReader(resp.Body)
		t.c.consumeSSEPost(ctx, reader)
		_ = resp.Body.Close()
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		if len(body) > 0 {
			t.c.base.HandleMessage(ctx, body)
		}
	default:
		t.Unlock()
		return transport.NewHTTPError(resp.StatusCode, string(body))
	}
	t.Unlock()
	return nil
}
