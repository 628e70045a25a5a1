package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/flowmesh-io/mcpproxy/mcp"
	"github.com/flowmesh-io/mcpproxy/session"
	"github.com/flowmesh-io/mcpproxy/transport"
	serverstreamable "github.com/flowmesh-io/mcpproxy/transport/server/http/streamable"
)

// fakeDownstreamServer simulates a Modern Streamable-HTTP MCP server: it
// answers "initialize" with a fixed InitializeResponse and everything else
// by echoing the request's method back as the result, tagged so the test
// can confirm the frame actually reached it.
func fakeDownstreamServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req struct {
			Id     interface{}     `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		require.NoError(t, json.Unmarshal(body, &req))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Mcp-Session-Id", "downstreamsession1234567890")
		w.WriteHeader(http.StatusOK)

		switch req.Method {
		case "initialize":
			result, _ := json.Marshal(mcp.InitializeResponse{
				ProtocolVersion: session.ProtocolModern,
				ServerInfo:      mcp.Implementation{Name: "fake-downstream", Version: "1.0.0"},
			})
			resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.Id, "result": json.RawMessage(result)}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			result, _ := json.Marshal(map[string]string{"echo": req.Method})
			resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.Id, "result": json.RawMessage(result)}
			_ = json.NewEncoder(w).Encode(resp)
		}
	}))
}

// TestConnect_WiresDownstreamThroughDial exercises transport/dial.New end
// to end: Connect dials the configured HttpStream endpoint, runs the
// initialize handshake over the real driver, and returns a Proxy whose
// Downstream reports the negotiated server info.
func TestConnect_WiresDownstreamThroughDial(t *testing.T) {
	downstream := fakeDownstreamServer(t)
	defer downstream.Close()

	cfg := transport.Config{HttpStream: &transport.HttpStreamConfig{BaseURL: downstream.URL, Timeout: 2 * time.Second}}
	p, err := Connect(context.Background(), cfg, "proxy-1", session.ClientInfo{
		Implementation: mcp.Implementation{Name: "test-client", Version: "1.0.0"},
	}, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, p)

	info := p.Downstream.ServerInfo()
	require.NotNil(t, info)
	assert.Equal(t, "fake-downstream", info.Implementation.Name)
}

// TestListenStreamable_ForwardsRequestToDownstream wires a Proxy built by
// Connect into the server-side Streamable-HTTP handler (what ListenStreamable
// binds to an address) and drives a real HTTP request through it from an
// "external client", exercising the full external-client -> proxy ->
// downstream-server chain.
func TestListenStreamable_ForwardsRequestToDownstream(t *testing.T) {
	downstream := fakeDownstreamServer(t)
	defer downstream.Close()

	cfg := transport.Config{HttpStream: &transport.HttpStreamConfig{BaseURL: downstream.URL, Timeout: 2 * time.Second}}
	p, err := Connect(context.Background(), cfg, "proxy-2", session.ClientInfo{
		Implementation: mcp.Implementation{Name: "test-client", Version: "1.0.0"},
	}, nil, nil)
	require.NoError(t, err)

	upstream := httptest.NewServer(serverstreamable.New(p.NewHandler))
	defer upstream.Close()

	reqBody, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0", "id": "1", "method": "tools/list", "params": map[string]interface{}{},
	})
	// No Mcp-Session-Id on the first request: the streamable handler treats
	// this as a handshake, creating a session and serving this same frame
	// against it in one round trip.
	httpReq, err := http.NewRequest(http.MethodPost, upstream.URL, bytes.NewReader(reqBody))
	require.NoError(t, err)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded struct {
		Result struct {
			Echo string `json:"echo"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(respBody, &decoded))
	assert.Equal(t, "tools/list", decoded.Result.Echo)
}
