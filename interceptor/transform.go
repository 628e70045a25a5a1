package interceptor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/flowmesh-io/mcpproxy"
)

// TransformOperation names the mutation a TransformRule applies.
type TransformOperation string

const (
	OpSet          TransformOperation = "set"
	OpAddIfMissing TransformOperation = "add_if_missing"
	OpRemove       TransformOperation = "remove"
	OpRename       TransformOperation = "rename"
	OpFunction     TransformOperation = "function"
)

// TransformFunction names one of the restricted functions a "function"
// operation may invoke.
type TransformFunction string

const (
	FuncUppercase TransformFunction = "uppercase"
	FuncLowercase TransformFunction = "lowercase"
	FuncIncrement TransformFunction = "increment"
)

// TransformRule describes one mutation applied to a frame's params.
// MethodPattern is "*" or an exact method name. Path is a dot-separated
// path into the params object; for Rename, To holds the destination path.
type TransformRule struct {
	Name          string
	MethodPattern string
	Path          string
	Operation     TransformOperation
	Value         interface{}
	To            string
	Function      TransformFunction
}

func (r TransformRule) matches(method string) bool {
	return r.MethodPattern == "*" || r.MethodPattern == method
}

// Transform applies an ordered set of rules to request/notification
// params. Rules are applied in insertion (slice) order.
type Transform struct {
	base
	Rules []TransformRule
}

// NewTransform creates a Transform interceptor with the given rule set.
func NewTransform(rules ...TransformRule) *Transform {
	return &Transform{Rules: rules}
}

func (t *Transform) Name() string     { return "transform" }
func (t *Transform) Priority() uint32 { return 40 }

func (t *Transform) ShouldIntercept(mc *MessageContext) bool {
	switch mc.Message.Type {
	case jsonrpc.MessageTypeRequest, jsonrpc.MessageTypeNotification:
		return len(t.Rules) > 0
	default:
		return false
	}
}

func (t *Transform) Intercept(mc *MessageContext) (InterceptionResult, error) {
	method := mc.Message.Method()
	params := t.paramsOf(mc.Message)

	doc := map[string]interface{}{}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &doc); err != nil {
			return InterceptionResult{Message: mc.Message}, fmt.Errorf("transform: params for %q are not a JSON object: %w", method, err)
		}
	}

	applied := false
	var reasonings []string
	for _, rule := range t.Rules {
		if !rule.matches(method) {
			continue
		}
		changed, reason, err := applyRule(doc, rule)
		if err != nil {
			return InterceptionResult{Message: mc.Message}, fmt.Errorf("transform rule %q: %w", rule.Name, err)
		}
		if changed {
			applied = true
			reasonings = append(reasonings, reason)
		}
	}

	if !applied {
		return InterceptionResult{Message: mc.Message}, nil
	}

	newParams, err := json.Marshal(doc)
	if err != nil {
		return InterceptionResult{Message: mc.Message}, fmt.Errorf("transform: failed to re-marshal params: %w", err)
	}

	out := t.withParams(mc.Message, newParams)
	return InterceptionResult{
		Modified:   true,
		Message:    out,
		Reasoning:  strings.Join(reasonings, "; "),
		Confidence: 1,
	}, nil
}

func (t *Transform) paramsOf(message *jsonrpc.Message) json.RawMessage {
	switch message.Type {
	case jsonrpc.MessageTypeRequest:
		return message.JsonRpcRequest.Params
	case jsonrpc.MessageTypeNotification:
		return message.JsonRpcNotification.Params
	default:
		return nil
	}
}

func (t *Transform) withParams(message *jsonrpc.Message, params json.RawMessage) *jsonrpc.Message {
	switch message.Type {
	case jsonrpc.MessageTypeRequest:
		req := *message.JsonRpcRequest
		req.Params = params
		return jsonrpc.NewRequestMessage(&req)
	case jsonrpc.MessageTypeNotification:
		notif := *message.JsonRpcNotification
		notif.Params = params
		return jsonrpc.NewNotificationMessage(&notif)
	default:
		return message
	}
}

// applyRule mutates doc in place per rule, returning whether a change was
// made and a human-readable reasoning string for the chain's aggregate.
func applyRule(doc map[string]interface{}, rule TransformRule) (bool, string, error) {
	segments := strings.Split(rule.Path, ".")

	switch rule.Operation {
	case OpSet:
		setPath(doc, segments, rule.Value)
		return true, fmt.Sprintf("set %s", rule.Path), nil

	case OpAddIfMissing:
		if _, ok := getPath(doc, segments); ok {
			return false, "", nil
		}
		setPath(doc, segments, rule.Value)
		return true, fmt.Sprintf("added missing %s", rule.Path), nil

	case OpRemove:
		if removePath(doc, segments) {
			return true, fmt.Sprintf("removed %s", rule.Path), nil
		}
		return false, "", nil

	case OpRename:
		value, ok := getPath(doc, segments)
		if !ok {
			return false, "", nil
		}
		removePath(doc, segments)
		setPath(doc, strings.Split(rule.To, "."), value)
		return true, fmt.Sprintf("renamed %s to %s", rule.Path, rule.To), nil

	case OpFunction:
		value, ok := getPath(doc, segments)
		if !ok {
			return false, "", nil
		}
		result, err := applyFunction(rule.Function, value)
		if err != nil {
			return false, "", err
		}
		setPath(doc, segments, result)
		return true, fmt.Sprintf("applied %s to %s", rule.Function, rule.Path), nil

	default:
		return false, "", fmt.Errorf("unknown transform operation %q", rule.Operation)
	}
}

func applyFunction(fn TransformFunction, value interface{}) (interface{}, error) {
	switch fn {
	case FuncUppercase:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("uppercase requires a string value, got %T", value)
		}
		return strings.ToUpper(s), nil
	case FuncLowercase:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("lowercase requires a string value, got %T", value)
		}
		return strings.ToLower(s), nil
	case FuncIncrement:
		switch n := value.(type) {
		case float64:
			return n + 1, nil
		case string:
			i, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, fmt.Errorf("increment requires a numeric value, got %q", n)
			}
			return i + 1, nil
		default:
			return nil, fmt.Errorf("increment requires a numeric value, got %T", value)
		}
	default:
		return nil, fmt.Errorf("unknown transform function %q", fn)
	}
}

func getPath(doc map[string]interface{}, segments []string) (interface{}, bool) {
	cur := interface{}(doc)
	for _, seg := range segments {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func setPath(doc map[string]interface{}, segments []string, value interface{}) {
	cur := doc
	for i, seg := range segments {
		if i == len(segments)-1 {
			cur[seg] = value
			return
		}
		next, ok := cur[seg].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			cur[seg] = next
		}
		cur = next
	}
}

func removePath(doc map[string]interface{}, segments []string) bool {
	cur := doc
	for i, seg := range segments {
		if i == len(segments)-1 {
			if _, ok := cur[seg]; !ok {
				return false
			}
			delete(cur, seg)
			return true
		}
		next, ok := cur[seg].(map[string]interface{})
		if !ok {
			return false
		}
		cur = next
	}
	return false
}
