package interceptor

import (
	"encoding/json"
	"testing"
)

func TestTransform_AddIfMissing(t *testing.T) {
	tf := NewTransform(TransformRule{
		Name:          "verbose-default",
		MethodPattern: "tools/call",
		Path:          "arguments.verbose",
		Operation:     OpAddIfMissing,
		Value:         true,
	})

	mc := &MessageContext{Message: requestMessage("tools/call", `{"name":"x","arguments":{}}`)}
	result, err := tf.Intercept(mc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Modified {
		t.Fatalf("expected the frame to be modified")
	}

	var params map[string]interface{}
	if err := json.Unmarshal(result.Message.JsonRpcRequest.Params, &params); err != nil {
		t.Fatalf("failed to unmarshal resulting params: %v", err)
	}
	args, _ := params["arguments"].(map[string]interface{})
	if args["verbose"] != true {
		t.Fatalf("expected arguments.verbose == true, got %v", args)
	}

	stats := tf.Stats()
	if stats.TotalModified != 0 {
		// Stats() on a raw interceptor is only populated via the chain's
		// statsRecorder calls; calling Intercept directly does not record.
		t.Fatalf("expected direct Intercept calls to leave Stats untouched, got %+v", stats)
	}
}

func TestTransform_AddIfMissingSkipsExisting(t *testing.T) {
	tf := NewTransform(TransformRule{
		MethodPattern: "tools/call",
		Path:          "arguments.verbose",
		Operation:     OpAddIfMissing,
		Value:         true,
	})
	mc := &MessageContext{Message: requestMessage("tools/call", `{"arguments":{"verbose":false}}`)}
	result, err := tf.Intercept(mc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Modified {
		t.Fatalf("expected no modification when the field already exists")
	}
}

func TestTransform_MethodPatternFiltering(t *testing.T) {
	tf := NewTransform(TransformRule{
		MethodPattern: "resources/list",
		Path:          "x",
		Operation:     OpSet,
		Value:         1,
	})
	mc := &MessageContext{Message: requestMessage("tools/call", `{}`)}
	result, err := tf.Intercept(mc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Modified {
		t.Fatalf("rule scoped to a different method must not apply")
	}
}

func TestTransform_FunctionUppercase(t *testing.T) {
	tf := NewTransform(TransformRule{
		MethodPattern: "*",
		Path:          "name",
		Operation:     OpFunction,
		Function:      FuncUppercase,
	})
	mc := &MessageContext{Message: requestMessage("tools/call", `{"name":"hello"}`)}
	result, err := tf.Intercept(mc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var params map[string]interface{}
	json.Unmarshal(result.Message.JsonRpcRequest.Params, &params)
	if params["name"] != "HELLO" {
		t.Fatalf("expected uppercased name, got %v", params["name"])
	}
}

func TestTransform_Remove(t *testing.T) {
	tf := NewTransform(TransformRule{
		MethodPattern: "*",
		Path:          "secret",
		Operation:     OpRemove,
	})
	mc := &MessageContext{Message: requestMessage("tools/call", `{"secret":"x","name":"y"}`)}
	result, err := tf.Intercept(mc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var params map[string]interface{}
	json.Unmarshal(result.Message.JsonRpcRequest.Params, &params)
	if _, ok := params["secret"]; ok {
		t.Fatalf("expected secret to be removed")
	}
	if params["name"] != "y" {
		t.Fatalf("expected unrelated fields to survive")
	}
}

func TestTransform_Rename(t *testing.T) {
	tf := NewTransform(TransformRule{
		MethodPattern: "*",
		Path:          "old_name",
		Operation:     OpRename,
		To:            "new_name",
	})
	mc := &MessageContext{Message: requestMessage("tools/call", `{"old_name":"y"}`)}
	result, err := tf.Intercept(mc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var params map[string]interface{}
	json.Unmarshal(result.Message.JsonRpcRequest.Params, &params)
	if _, ok := params["old_name"]; ok {
		t.Fatalf("expected old_name to be gone")
	}
	if params["new_name"] != "y" {
		t.Fatalf("expected new_name to carry the renamed value, got %v", params["new_name"])
	}
}

func TestTransform_RuleOrderIsInsertionOrder(t *testing.T) {
	tf := NewTransform(
		TransformRule{MethodPattern: "*", Path: "count", Operation: OpSet, Value: float64(1)},
		TransformRule{MethodPattern: "*", Path: "count", Operation: OpFunction, Function: FuncIncrement},
	)
	mc := &MessageContext{Message: requestMessage("tools/call", `{}`)}
	result, err := tf.Intercept(mc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var params map[string]interface{}
	json.Unmarshal(result.Message.JsonRpcRequest.Params, &params)
	if params["count"] != float64(2) {
		t.Fatalf("expected set-then-increment to yield 2, got %v", params["count"])
	}
}
