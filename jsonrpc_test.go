package jsonrpc

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestRequest_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      *Request
		wantError bool
	}{
		{
			name:  "valid request",
			input: `{"jsonrpc":"2.0","method":"test","id":1,"params":{"name":"test"}}`,
			want: &Request{
				Jsonrpc: "2.0",
				Method:  "test",
				Id:      float64(1),
				Params:  json.RawMessage(`{"name":"test"}`),
			},
		},
		{
			name:      "missing jsonrpc version",
			input:     `{"method":"test","id":1,"params":{"name":"test"}}`,
			wantError: true,
		},
		{
			name:      "wrong jsonrpc version",
			input:     `{"jsonrpc":"1.0","method":"test","id":1}`,
			wantError: true,
		},
		{
			name:      "missing method",
			input:     `{"jsonrpc":"2.0","id":1,"params":{"name":"test"}}`,
			wantError: true,
		},
		{
			name:      "empty method",
			input:     `{"jsonrpc":"2.0","id":1,"method":""}`,
			wantError: true,
		},
		{
			name:      "missing id",
			input:     `{"jsonrpc":"2.0","method":"test","params":{"name":"test"}}`,
			wantError: true,
		},
		{
			name:  "params optional",
			input: `{"jsonrpc":"2.0","method":"test","id":1}`,
			want: &Request{
				Jsonrpc: "2.0",
				Method:  "test",
				Id:      float64(1),
				Params:  nil,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Request
			err := json.Unmarshal([]byte(tt.input), &got)

			if tt.wantError {
				if err == nil {
					t.Errorf("expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Jsonrpc != tt.want.Jsonrpc {
				t.Errorf("Jsonrpc: got %v, want %v", got.Jsonrpc, tt.want.Jsonrpc)
			}
			if got.Method != tt.want.Method {
				t.Errorf("Method: got %v, want %v", got.Method, tt.want.Method)
			}
			if !reflect.DeepEqual(got.Id, tt.want.Id) {
				t.Errorf("Id: got %v (%T), want %v (%T)", got.Id, got.Id, tt.want.Id, tt.want.Id)
			}
		})
	}
}

func TestNotification_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      *Notification
		wantError bool
	}{
		{
			name:  "valid notification",
			input: `{"jsonrpc":"2.0","method":"test","params":{"name":"test"}}`,
			want: &Notification{
				Jsonrpc: "2.0",
				Method:  "test",
				Params:  json.RawMessage(`{"name":"test"}`),
			},
		},
		{
			name:      "missing jsonrpc version",
			input:     `{"method":"test","params":{"name":"test"}}`,
			wantError: true,
		},
		{
			name:      "missing method",
			input:     `{"jsonrpc":"2.0","params":{"name":"test"}}`,
			wantError: true,
		},
		{
			name:      "with id field (not allowed)",
			input:     `{"jsonrpc":"2.0","method":"test","id":1,"params":{"name":"test"}}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Notification
			err := json.Unmarshal([]byte(tt.input), &got)

			if tt.wantError {
				if err == nil {
					t.Errorf("expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Jsonrpc != tt.want.Jsonrpc {
				t.Errorf("Jsonrpc: got %v, want %v", got.Jsonrpc, tt.want.Jsonrpc)
			}
			if got.Method != tt.want.Method {
				t.Errorf("Method: got %v, want %v", got.Method, tt.want.Method)
			}
		})
	}
}

func TestResponse_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      *Response
		wantError bool
	}{
		{
			name:  "valid response",
			input: `{"jsonrpc":"2.0","id":1,"result":{"status":"ok"}}`,
			want: &Response{
				Jsonrpc: "2.0",
				Id:      float64(1),
				Result:  json.RawMessage(`{"status":"ok"}`),
			},
		},
		{
			name:  "valid error response",
			input: `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`,
			want: &Response{
				Jsonrpc: "2.0",
				Id:      float64(1),
				Error:   &Error{Code: -32601, Message: "method not found"},
			},
		},
		{
			name:      "missing jsonrpc version",
			input:     `{"id":1,"result":{"status":"ok"}}`,
			wantError: true,
		},
		{
			name:      "missing id",
			input:     `{"jsonrpc":"2.0","result":{"status":"ok"}}`,
			wantError: true,
		},
		{
			name:      "missing result and error",
			input:     `{"jsonrpc":"2.0","id":1}`,
			wantError: true,
		},
		{
			name:      "both result and error",
			input:     `{"jsonrpc":"2.0","id":1,"result":{},"error":{"code":-1,"message":"x"}}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Response
			err := json.Unmarshal([]byte(tt.input), &got)

			if tt.wantError {
				if err == nil {
					t.Errorf("expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Jsonrpc != tt.want.Jsonrpc {
				t.Errorf("Jsonrpc: got %v, want %v", got.Jsonrpc, tt.want.Jsonrpc)
			}
			if !reflect.DeepEqual(got.Id, tt.want.Id) {
				t.Errorf("Id: got %v (%T), want %v (%T)", got.Id, got.Id, tt.want.Id, tt.want.Id)
			}
			if tt.want.Error != nil {
				if got.Error == nil || *got.Error != *tt.want.Error {
					t.Errorf("Error: got %+v, want %+v", got.Error, tt.want.Error)
				}
				return
			}
			if string(got.Result) != string(tt.want.Result) {
				t.Errorf("Result: got %v, want %v", string(got.Result), string(tt.want.Result))
			}
		})
	}
}

// round-trip: parse(serialize(F)) == F for each frame kind.
func TestFramingRoundTrip(t *testing.T) {
	req := &Request{Jsonrpc: Version, Method: "tools/list", Id: "req_1", Params: json.RawMessage(`{"cursor":null}`)}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	var got Request
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(req, &got) {
		t.Errorf("round trip mismatch: got %+v want %+v", got, req)
	}

	resp := &Response{Jsonrpc: Version, Id: "req_1", Result: json.RawMessage(`{"tools":[]}`)}
	data, err = json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	var gotResp Response
	if err := json.Unmarshal(data, &gotResp); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(resp, &gotResp) {
		t.Errorf("round trip mismatch: got %+v want %+v", gotResp, resp)
	}

	notif := &Notification{Jsonrpc: Version, Method: "notifications/initialized"}
	data, err = json.Marshal(notif)
	if err != nil {
		t.Fatal(err)
	}
	var gotNotif Notification
	if err := json.Unmarshal(data, &gotNotif); err != nil {
		t.Fatal(err)
	}
	if gotNotif.Method != notif.Method || gotNotif.Jsonrpc != notif.Jsonrpc {
		t.Errorf("round trip mismatch: got %+v want %+v", gotNotif, notif)
	}
}

func TestMessage_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		message  *Message
		expected string
	}{
		{
			name: "request message",
			message: NewRequestMessage(&Request{
				Jsonrpc: "2.0",
				Method:  "test",
				Id:      1,
				Params:  json.RawMessage(`{"name":"test"}`),
			}),
			expected: `{"jsonrpc":"2.0","id":1,"method":"test","params":{"name":"test"}}`,
		},
		{
			name: "notification message",
			message: NewNotificationMessage(&Notification{
				Jsonrpc: "2.0",
				Method:  "notify",
				Params:  json.RawMessage(`{"event":"update"}`),
			}),
			expected: `{"jsonrpc":"2.0","method":"notify","params":{"event":"update"}}`,
		},
		{
			name: "response message",
			message: NewResponseMessage(&Response{
				Jsonrpc: "2.0",
				Id:      2,
				Result:  json.RawMessage(`{"status":"ok"}`),
			}),
			expected: `{"jsonrpc":"2.0","id":2,"result":{"status":"ok"}}`,
		},
		{
			name: "error response message",
			message: NewResponseMessage(&Response{
				Jsonrpc: "2.0",
				Id:      3,
				Error:   NewInnerError(-32600, "Invalid Request", "Details here"),
			}),
			expected: `{"error":{"code":-32600,"data":"Details here","message":"Invalid Request"},"id":3,"jsonrpc":"2.0"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.message)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var gotObj, expectedObj interface{}
			if err := json.Unmarshal(got, &gotObj); err != nil {
				t.Fatalf("failed to unmarshal result: %v", err)
			}
			if err := json.Unmarshal([]byte(tt.expected), &expectedObj); err != nil {
				t.Fatalf("failed to unmarshal expected: %v", err)
			}
			if !reflect.DeepEqual(gotObj, expectedObj) {
				t.Errorf("Message JSON\ngot:  %s\nwant: %s", got, tt.expected)
			}
		})
	}
}
