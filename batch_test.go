package jsonrpc

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestBatchRequest_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantLen   int
		wantError bool
	}{
		{
			name: "valid batch request with a notification",
			data: `[
				{"jsonrpc": "2.0", "method": "sum", "params": [1,2,4], "id": 1},
				{"jsonrpc": "2.0", "method": "notify_hello", "params": [7]},
				{"jsonrpc": "2.0", "method": "subtract", "params": [42,23], "id": 2}
			]`,
			wantLen: 3,
		},
		{
			name:      "empty array",
			data:      `[]`,
			wantError: true,
		},
		{
			name:      "invalid JSON",
			data:      `[{"jsonrpc": "2.0", "method": "sum", "params": [1,2,4], "id": 1},]`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var br BatchRequest
			err := json.Unmarshal([]byte(tt.data), &br)
			if tt.wantError {
				if err == nil {
					t.Errorf("expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(br) != tt.wantLen {
				t.Errorf("got length = %d, want %d", len(br), tt.wantLen)
			}
			if br[0].Type != MessageTypeRequest || br[0].JsonRpcRequest.Method != "sum" {
				t.Errorf("expected first element to be a request for 'sum', got %+v", br[0])
			}
			if br[1].Type != MessageTypeNotification || br[1].JsonRpcNotification.Method != "notify_hello" {
				t.Errorf("expected second element to be a notification for 'notify_hello', got %+v", br[1])
			}
		})
	}
}

func TestBatchResponse_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		br   BatchResponse
		want string
	}{
		{
			name: "mixed responses and errors",
			br: BatchResponse{
				&Response{Id: float64(1), Jsonrpc: "2.0", Result: json.RawMessage(`{"result":3}`)},
				&Response{Id: float64(2), Jsonrpc: "2.0", Error: NewInnerError(-32600, "Invalid Request", nil)},
			},
			want: `[{"id":1,"jsonrpc":"2.0","result":{"result":3}},{"error":{"code":-32600,"message":"Invalid Request"},"id":2,"jsonrpc":"2.0"}]`,
		},
		{
			name: "empty batch response",
			br:   BatchResponse{},
			want: `[]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.br)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var gotObj, wantObj interface{}
			_ = json.Unmarshal(got, &gotObj)
			_ = json.Unmarshal([]byte(tt.want), &wantObj)
			if !reflect.DeepEqual(gotObj, wantObj) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewBatchResponseFromResponses(t *testing.T) {
	responses := []*Response{
		{Id: float64(1), Jsonrpc: "2.0", Result: json.RawMessage(`{"result":3}`)},
		{Id: float64(2), Jsonrpc: "2.0", Result: json.RawMessage(`{"result":5}`)},
	}
	br := NewBatchResponseFromResponses(responses)
	if len(br) != len(responses) {
		t.Errorf("got length = %d, want %d", len(br), len(responses))
	}
}
