package mcp

import (
	"encoding/json"
	"testing"
)

func TestCapabilities_CustomExtensionsSurviveRoundTrip(t *testing.T) {
	listChanged := true
	caps := Capabilities{
		Standard: StandardCapabilities{
			Tools: &ToolCapabilities{ListChanged: &listChanged},
		},
		Custom: map[string]json.RawMessage{
			"experimental": json.RawMessage(`{"streaming":true}`),
		},
	}
	data, err := json.Marshal(caps)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Capabilities
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Standard.Tools == nil || got.Standard.Tools.ListChanged == nil || !*got.Standard.Tools.ListChanged {
		t.Fatalf("expected tools.listChanged=true, got %+v", got.Standard.Tools)
	}
	if string(got.Custom["experimental"]) != `{"streaming":true}` {
		t.Errorf("custom capability not preserved, got %s", got.Custom["experimental"])
	}
}

func TestImplementation_MetadataFlattensAlongsideNameVersion(t *testing.T) {
	impl := Implementation{
		Name:     "proxy-editor",
		Version:  "1.2.3",
		Metadata: map[string]interface{}{"platform": "darwin"},
	}
	data, err := json.Marshal(impl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if raw["platform"] != "darwin" || raw["name"] != "proxy-editor" {
		t.Errorf("expected flattened metadata, got %v", raw)
	}

	var got Implementation
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != impl.Name || got.Version != impl.Version {
		t.Errorf("got %+v, want name/version %s/%s", got, impl.Name, impl.Version)
	}
	if got.Metadata["platform"] != "darwin" {
		t.Errorf("metadata not recovered, got %+v", got.Metadata)
	}
}

func TestProgressToken_AcceptsStringOrNumber(t *testing.T) {
	var str ProgressToken
	if err := json.Unmarshal([]byte(`"upload-7"`), &str); err != nil {
		t.Fatalf("unmarshal string token: %v", err)
	}
	if str.String() != "upload-7" {
		t.Errorf("got %q, want upload-7", str.String())
	}

	var num ProgressToken
	if err := json.Unmarshal([]byte(`42`), &num); err != nil {
		t.Fatalf("unmarshal numeric token: %v", err)
	}
	if num.String() != "42" {
		t.Errorf("got %q, want 42", num.String())
	}
}

func TestLogLevel_Ordering(t *testing.T) {
	if !LogLevelDebug.IsMoreVerboseThan(LogLevelCritical) {
		t.Error("debug should be more verbose than critical")
	}
	if LogLevelCritical.IsMoreVerboseThan(LogLevelDebug) {
		t.Error("critical should not be more verbose than debug")
	}
}
