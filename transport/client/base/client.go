package base

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/flowmesh-io/mcpproxy"
	"github.com/flowmesh-io/mcpproxy/transport"
	"github.com/flowmesh-io/mcpproxy/transport/base"
)

// Client is the shared request/response plumbing used by every concrete
// client transport (stdio, SSE, streamable HTTP). A transport only needs
// to supply SendData and feed inbound bytes to HandleMessage; Client takes
// care of id assignment, correlation, interception and notification
// dispatch.
type Client struct {
	Transport
	Handler     transport.Handler
	Pending     *transport.PendingRequests
	RunTimeout  time.Duration
	Listener    jsonrpc.Listener
	Logger      jsonrpc.Logger
	Interceptor transport.Interceptor
	counter     uint64
	err         error
}

func (c *Client) pending() *transport.PendingRequests {
	if c.Pending == nil {
		c.Pending = transport.NewPendingRequests()
	}
	return c.Pending
}

func (c *Client) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	return c.sendRequest(ctx, &jsonrpc.Request{
		Jsonrpc: jsonrpc.Version,
		Method:  notification.Method,
		Params:  notification.Params,
	})
}

// SetError marks the client as permanently failed; subsequent Send calls
// fail fast and any pending trips are completed with err.
func (c *Client) SetError(err error) {
	c.err = err
	c.pending().CloseWithError(err)
}

func (c *Client) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	if request.Id == nil {
		request.Id = fmt.Sprintf("req_%d", atomic.AddUint64(&c.counter, 1))
	}
	trip, err := c.send(ctx, request)
	if err != nil {
		return nil, err
	}
	return trip.Wait(ctx, c.RunTimeout)
}

func (c *Client) HandleMessage(ctx context.Context, data []byte) {
	messageType := base.MessageType(data)
	message := &jsonrpc.Message{Type: messageType}
	if c.Listener != nil {
		defer c.Listener(message)
	}
	switch messageType {
	case jsonrpc.MessageTypeNotification:
		c.handleOnNotification(ctx, data, message)
		return
	case jsonrpc.MessageTypeRequest:
		c.handleRequest(ctx, data, message)
		return
	}
	c.handleResponse(ctx, data, message)
}

func (c *Client) handleResponse(ctx context.Context, data []byte, message *jsonrpc.Message) {
	response := &jsonrpc.Response{}
	if err := json.Unmarshal(data, response); err != nil {
		if c.Logger != nil {
			c.Logger.Errorf("failed to parse response: %v", err)
		}
		return
	}
	message.JsonRpcResponse = response

	// The interceptor may want to see the original request this response
	// answers, so resolve via a lookup that doesn't consume the trip yet
	// when a follow-up request is possible.
	var followUpRequest *jsonrpc.Request
	if c.Interceptor != nil {
		if original := c.pending().Peek(response.Id); original != nil {
			var err error
			followUpRequest, err = c.Interceptor.Intercept(ctx, original, response)
			if err != nil && c.Logger != nil {
				c.Logger.Errorf("interceptor error: %v", err)
			}
		}
	}

	if followUpRequest != nil {
		resp, err := c.Send(ctx, followUpRequest)
		if err != nil {
			if c.Logger != nil {
				c.Logger.Errorf("failed to send follow-up request: %v", err)
			}
		} else if resp != nil {
			response.Result = resp.Result
			response.Error = resp.Error
		}
	}

	if !c.pending().Resolve(response) {
		if c.Logger != nil {
			c.Logger.Warnf("received response for unknown request id %s", jsonrpc.IDString(response.Id))
		}
	}
}

func (c *Client) handleRequest(ctx context.Context, data []byte, message *jsonrpc.Message) {
	response := &jsonrpc.Response{}
	request := &jsonrpc.Request{}
	if err := json.Unmarshal(data, request); err != nil {
		if c.Logger != nil {
			c.Logger.Errorf("failed to parse request: %v", err)
		}
		return
	}
	if c.Handler == nil {
		if c.Logger != nil {
			c.Logger.Warnf("received server-initiated request %q with no handler installed, ignoring", request.Method)
		}
		return
	}
	c.Handler.Serve(ctx, request, response)
	message.JsonRpcRequest = request
	message.JsonRpcResponse = response
	if err := c.sendResponse(ctx, response); err != nil {
		if c.Logger != nil {
			c.Logger.Errorf("failed to send response: %v", err)
		}
	}
}

func (c *Client) handleOnNotification(ctx context.Context, data []byte, message *jsonrpc.Message) {
	notification := &jsonrpc.Notification{}
	if err := json.Unmarshal(bytes.TrimSpace(data), notification); err != nil {
		if c.Logger != nil {
			c.Logger.Errorf("failed to parse notification: %v, %s", err, data)
		}
		return
	}
	message.JsonRpcNotification = notification
	if c.Handler != nil {
		c.Handler.OnNotification(ctx, notification)
	}
}

func (c *Client) send(ctx context.Context, request *jsonrpc.Request) (*transport.RoundTrip, error) {
	if c.err != nil {
		return nil, c.err
	}
	trip, err := c.pending().Add(request)
	if err != nil {
		return nil, err
	}
	if err := c.sendRequest(ctx, request); err != nil {
		c.pending().Cancel(request.Id, err)
		return nil, err
	}
	return trip, nil
}

func (c *Client) sendRequest(ctx context.Context, request *jsonrpc.Request) error {
	buffer := new(bytes.Buffer)
	if err := json.NewEncoder(buffer).Encode(request); err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	if !strings.HasSuffix(buffer.String(), "\n") {
		buffer.WriteByte('\n')
	}
	if c.Listener != nil {
		c.Listener(&jsonrpc.Message{Type: jsonrpc.MessageTypeRequest, JsonRpcRequest: request})
	}
	return c.SendData(ctx, buffer.Bytes())
}

func (c *Client) sendResponse(ctx context.Context, response *jsonrpc.Response) error {
	buffer := new(bytes.Buffer)
	if err := json.NewEncoder(buffer).Encode(response); err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	if !strings.HasSuffix(buffer.String(), "\n") {
		buffer.WriteByte('\n')
	}
	if c.Listener != nil {
		c.Listener(&jsonrpc.Message{Type: jsonrpc.MessageTypeResponse, JsonRpcResponse: response})
	}
	return c.SendData(ctx, buffer.Bytes())
}
