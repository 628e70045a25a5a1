package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType is an enumeration of the JSON-RPC frame kinds.
type MessageType string

const (
	MessageTypeRequest      MessageType = "request"
	MessageTypeNotification MessageType = "notification"
	MessageTypeResponse     MessageType = "response"
)

// Message is a wrapper around the three JSON-RPC frame kinds (Request,
// Notification, Response). Exactly one of the typed fields is populated,
// matching Type.
type Message struct {
	Type                MessageType
	JsonRpcRequest      *Request
	JsonRpcNotification *Notification
	JsonRpcResponse     *Response
}

// Method returns the method name carried by a request or notification, and
// the empty string for a response (responses carry no method).
func (m *Message) Method() string {
	switch m.Type {
	case MessageTypeRequest:
		return m.JsonRpcRequest.Method
	case MessageTypeNotification:
		return m.JsonRpcNotification.Method
	default:
		return ""
	}
}

// MarshalJSON is a custom JSON marshaler for the Message type.
func (m *Message) MarshalJSON() ([]byte, error) {
	switch m.Type {
	case MessageTypeRequest:
		return json.Marshal(m.JsonRpcRequest)
	case MessageTypeNotification:
		return json.Marshal(m.JsonRpcNotification)
	case MessageTypeResponse:
		return json.Marshal(m.JsonRpcResponse)
	default:
		return nil, errors.New("unknown message type, couldn't marshal")
	}
}

// NewNotificationMessage creates a new JSON-RPC message of type Notification.
func NewNotificationMessage(notification *Notification) *Message {
	return &Message{Type: MessageTypeNotification, JsonRpcNotification: notification}
}

// NewRequestMessage creates a new JSON-RPC message of type Request.
func NewRequestMessage(request *Request) *Message {
	return &Message{Type: MessageTypeRequest, JsonRpcRequest: request}
}

// NewResponseMessage creates a new JSON-RPC message of type Response.
func NewResponseMessage(response *Response) *Message {
	return &Message{Type: MessageTypeResponse, JsonRpcResponse: response}
}

// NewInnerError creates a new Error to carry inside a Response.
func NewInnerError(code int, message string, data interface{}) *Error {
	return &Error{Code: code, Message: message, Data: data}
}

// NewRequest builds a Request for method with parameters marshaled into
// Params. parameters may already be JSON (string, []byte, json.RawMessage)
// or any value marshalable via encoding/json.
func NewRequest(method string, parameters interface{}) (*Request, error) {
	req := &Request{Jsonrpc: Version, Method: method}
	var err error
	req.Params, err = asParameters(method, parameters)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// NewNotification builds a Notification for method with parameters
// marshaled into Params, using the same coercion rules as NewRequest.
func NewNotification(method string, parameters interface{}) (*Notification, error) {
	notif := &Notification{Jsonrpc: Version, Method: method}
	if parameters == nil {
		return notif, nil
	}
	var err error
	notif.Params, err = asParameters(method, parameters)
	if err != nil {
		return nil, err
	}
	return notif, nil
}

func asParameters(method string, parameters interface{}) (json.RawMessage, error) {
	switch actual := parameters.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(actual), nil
	case []byte:
		return actual, nil
	case json.RawMessage:
		return actual, nil
	default:
		data, err := json.Marshal(actual)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal jsonrpc request parameter: [method:%v, parameters: %+v] %w", method, parameters, err)
		}
		return data, nil
	}
}
