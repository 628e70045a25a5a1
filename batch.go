package jsonrpc

import (
	"bytes"
	"encoding/json"
	"errors"
)

// BatchRequest represents a JSON-RPC 2.0 batch request. Per the spec a
// batch element may be either a Request (expects a response) or a
// Notification (does not); both are represented as Messages.
type BatchRequest []*Message

// BatchResponse represents a JSON-RPC 2.0 batch response.
type BatchResponse []*Response

// UnmarshalJSON is a custom JSON unmarshaler for the BatchRequest type.
func (b *BatchRequest) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("[]")) {
		return errors.New("invalid batch request: empty array")
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return errors.New("invalid batch request: empty array")
	}
	messages := make([]*Message, 0, len(raw))
	for _, item := range raw {
		msg, err := parseBatchElement(item)
		if err != nil {
			return err
		}
		messages = append(messages, msg)
	}
	*b = messages
	return nil
}

func parseBatchElement(data []byte) (*Message, error) {
	probe := struct {
		Id *json.RawMessage `json:"id"`
	}{}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	if probe.Id == nil {
		notif := &Notification{}
		if err := json.Unmarshal(data, notif); err != nil {
			return nil, err
		}
		return NewNotificationMessage(notif), nil
	}
	req := &Request{}
	if err := json.Unmarshal(data, req); err != nil {
		return nil, err
	}
	return NewRequestMessage(req), nil
}

// MarshalJSON renders the batch as a plain JSON array of its elements.
func (b BatchRequest) MarshalJSON() ([]byte, error) {
	raw := make([]*Message, len(b))
	copy(raw, b)
	return json.Marshal(raw)
}

// NewBatchResponseFromResponses builds a BatchResponse from a slice of responses.
func NewBatchResponseFromResponses(responses []*Response) BatchResponse {
	br := make(BatchResponse, len(responses))
	copy(br, responses)
	return br
}
