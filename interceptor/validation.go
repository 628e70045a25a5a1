package interceptor

import (
	"encoding/json"
	"fmt"

	"github.com/flowmesh-io/mcpproxy"
	"github.com/flowmesh-io/mcpproxy/mcp"
)

// Validation checks basic JSON-RPC frame well-formedness: protocol
// version, non-empty method on requests/notifications, and mutual
// exclusion of result/error on responses. In strict mode a violation
// blocks the frame; otherwise it passes through with a logged warning.
type Validation struct {
	base
	Strict bool
	logger jsonrpc.Logger
}

// NewValidation creates a Validation interceptor. strict controls whether
// a violation blocks the frame or only logs a warning.
func NewValidation(logger jsonrpc.Logger, strict bool) *Validation {
	return &Validation{logger: logger, Strict: strict}
}

func (v *Validation) Name() string     { return "validation" }
func (v *Validation) Priority() uint32 { return 20 }

func (v *Validation) ShouldIntercept(mc *MessageContext) bool { return true }

func (v *Validation) Intercept(mc *MessageContext) (InterceptionResult, error) {
	if reason := v.violation(mc.Message); reason != "" {
		if v.Strict {
			return InterceptionResult{Block: true, Reasoning: reason}, nil
		}
		if v.logger != nil {
			v.logger.Warnf("validation: %s", reason)
		}
	}
	return InterceptionResult{Message: mc.Message}, nil
}

func (v *Validation) violation(message *jsonrpc.Message) string {
	switch message.Type {
	case jsonrpc.MessageTypeRequest:
		req := message.JsonRpcRequest
		if req.Jsonrpc != jsonrpc.Version {
			return fmt.Sprintf("invalid JSON-RPC version: %q", req.Jsonrpc)
		}
		if req.Method == "" {
			return "request method must not be empty"
		}
		if reason := v.mcpParamsViolation(req.Method, req.Params); reason != "" {
			return reason
		}
	case jsonrpc.MessageTypeNotification:
		notif := message.JsonRpcNotification
		if notif.Jsonrpc != jsonrpc.Version {
			return fmt.Sprintf("invalid JSON-RPC version: %q", notif.Jsonrpc)
		}
		if notif.Method == "" {
			return "notification method must not be empty"
		}
	case jsonrpc.MessageTypeResponse:
		resp := message.JsonRpcResponse
		if resp.Jsonrpc != jsonrpc.Version {
			return fmt.Sprintf("invalid JSON-RPC version: %q", resp.Jsonrpc)
		}
		hasResult := len(resp.Result) > 0
		hasError := resp.Error != nil
		if hasResult == hasError {
			return "response must carry exactly one of result or error"
		}
	}
	return ""
}

// mcpParamsViolation applies method-specific structural checks for the
// request methods spec.md §3's JSON-RPC frame description names, using
// mcp's typed params so a malformed tool call, resource read, prompt get,
// or sampling request is blocked before it reaches the wire rather than
// surfacing as an opaque downstream error.
func (v *Validation) mcpParamsViolation(method string, params json.RawMessage) string {
	if len(params) == 0 {
		return ""
	}
	switch method {
	case "tools/call":
		var p mcp.CallToolRequest
		if err := json.Unmarshal(params, &p); err != nil {
			return fmt.Sprintf("tools/call: malformed params: %v", err)
		}
		if p.Name == "" {
			return "tools/call: name must not be empty"
		}
	case "resources/read":
		var p mcp.ReadResourceRequest
		if err := json.Unmarshal(params, &p); err != nil {
			return fmt.Sprintf("resources/read: malformed params: %v", err)
		}
		if p.URI == "" {
			return "resources/read: uri must not be empty"
		}
	case "resources/subscribe":
		var p mcp.SubscribeRequest
		if err := json.Unmarshal(params, &p); err != nil {
			return fmt.Sprintf("resources/subscribe: malformed params: %v", err)
		}
		if p.URI == "" {
			return "resources/subscribe: uri must not be empty"
		}
	case "prompts/get":
		var p mcp.GetPromptRequest
		if err := json.Unmarshal(params, &p); err != nil {
			return fmt.Sprintf("prompts/get: malformed params: %v", err)
		}
		if p.Name == "" {
			return "prompts/get: name must not be empty"
		}
	case "sampling/complete":
		var p mcp.CompleteRequest
		if err := json.Unmarshal(params, &p); err != nil {
			return fmt.Sprintf("sampling/complete: malformed params: %v", err)
		}
		if len(p.Argument.Messages) == 0 {
			return "sampling/complete: argument.messages must not be empty"
		}
	}
	return ""
}
