package sse

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flowmesh-io/mcpproxy"
	"github.com/flowmesh-io/mcpproxy/transport"
)

func jsonrpcRequest(method string) *jsonrpc.Request {
	return &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Id: "req", Method: method}
}

func TestDetectDialect(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    Dialect
		matched bool
	}{
		{name: "modern path", url: "https://example.com/mcp", want: DialectModern, matched: true},
		{name: "legacy path", url: "https://example.com/sse", want: DialectLegacy, matched: true},
		{name: "unrecognized path defaults modern", url: "https://example.com/rpc", want: DialectModern, matched: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, matched := detectDialect(tt.url)
			if got != tt.want || matched != tt.matched {
				t.Errorf("detectDialect(%q) = (%v, %v), want (%v, %v)", tt.url, got, matched, tt.want, tt.matched)
			}
		})
	}
}

func TestExtractSessionID(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
		ok   bool
	}{
		{name: "preferred path form", data: "/sse?sessionId=abcd1234-ef01", want: "abcd1234-ef01", ok: true},
		{name: "modern path form", data: "/mcp?sessionId=abcd1234-ef01", want: "abcd1234-ef01", ok: true},
		{name: "loose query form", data: "reconnect with sessionId=deadbeef-0011-feed", want: "deadbeef-0011-feed", ok: true},
		{name: "json sessionId key", data: `{"sessionId":"1234567890abcdef"}`, want: "1234567890abcdef", ok: true},
		{name: "json session_id key", data: `{"session_id":"1234567890abcdef"}`, want: "1234567890abcdef", ok: true},
		{name: "no session id", data: `{"jsonrpc":"2.0","id":1,"result":{}}`, want: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractSessionID(tt.data)
			if ok != tt.ok || got != tt.want {
				t.Errorf("extractSessionID(%q) = (%q, %v), want (%q, %v)", tt.data, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestReadEvent(t *testing.T) {
	raw := "id: 7\nevent: message\ndata: {\"jsonrpc\":\"2.0\"}\nretry: 2500\n\n"
	c := &Client{done: make(chan bool)}
	reader := bufio.NewReader(strings.NewReader(raw))
	event, err := c.readEvent(context.Background(), reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.ID != "7" || event.Event != "message" || event.Data != `{"jsonrpc":"2.0"}` || event.RetryMillis != 2500 {
		t.Fatalf("unexpected event: %+v", event)
	}
}

// TestNew_ModernCapturesAndValidatesSession exercises spec scenario 6: the
// first POST response carries Mcp-Session-Id, which the client must
// capture, validate (length >= 16, [A-Za-z0-9-]), and echo back on the
// next request.
func TestNew_ModernCapturesAndValidatesSession(t *testing.T) {
	const sessionID = "abcdefghijklmnopqrstuvwxyz01"
	var mu sync.Mutex
	var sawSessionHeaderOnSecondCall bool
	var calls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// Background stream: keep it open briefly then close.
			w.Header().Set("Content-Type", "text/event-stream")
			w.WriteHeader(http.StatusOK)
			return
		}
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 2 && r.Header.Get("Mcp-Session-Id") == sessionID {
			mu.Lock()
			sawSessionHeaderOnSecondCall = true
			mu.Unlock()
		}
		w.Header().Set("Mcp-Session-Id", sessionID)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"req","result":{}}`))
	}))
	defer server.Close()

	cfg := &transport.HttpSseConfig{BaseURL: server.URL + "/mcp", Timeout: 2 * time.Second}
	client, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if client.dialect != DialectModern {
		t.Fatalf("expected Modern dialect, got %v", client.dialect)
	}

	_, err = client.Send(context.Background(), jsonrpcRequest("initialize"))
	if err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	if sid, _ := client.currentSession(); sid != sessionID {
		t.Fatalf("expected captured session id %q, got %q", sessionID, sid)
	}

	_, err = client.Send(context.Background(), jsonrpcRequest("tools/list"))
	if err != nil {
		t.Fatalf("second send failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !sawSessionHeaderOnSecondCall {
		t.Fatalf("expected the second request to echo back Mcp-Session-Id")
	}
}

// TestNew_ModernRejectsInvalidSessionID ensures a short, clearly invalid
// session id fails validation per §4.4.5 instead of being adopted.
func TestNew_ModernRejectsInvalidSessionID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Mcp-Session-Id", "short")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"req","result":{}}`))
	}))
	defer server.Close()

	cfg := &transport.HttpSseConfig{BaseURL: server.URL + "/mcp", Timeout: 2 * time.Second}
	client, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	_, err = client.Send(context.Background(), jsonrpcRequest("initialize"))
	if err == nil {
		t.Fatalf("expected an error for an invalid session id")
	}
}

// TestNew_LegacyDiscoversSessionAndPostsQueryParam exercises the §4.4.3
// discovery chain: a GET to /events announces a session via the preferred
// "/sse?sessionId=" form, and the POST path then targets that exact path.
func TestNew_LegacyDiscoversSessionAndPostsQueryParam(t *testing.T) {
	const sessionID = "legacysession1234567"
	var mu sync.Mutex
	var postedPath string

	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "event: endpoint\ndata: /sse?sessionId=%s\n\n", sessionID)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	mux.HandleFunc("/sse", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		mu.Lock()
		postedPath = r.URL.RequestURI()
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"req","result":{}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := &transport.HttpSseConfig{BaseURL: server.URL + "/sse", Timeout: 2 * time.Second}
	client, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if client.dialect != DialectLegacy {
		t.Fatalf("expected Legacy dialect, got %v", client.dialect)
	}

	_, err = client.Send(context.Background(), jsonrpcRequest("tools/list"))
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := fmt.Sprintf("/sse?sessionId=%s", sessionID)
	if postedPath != want {
		t.Fatalf("expected POST to %q, got %q", want, postedPath)
	}
}
