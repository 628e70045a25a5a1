package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// RequestId is the type used to represent the id of a JSON-RPC request.
// Per the spec it may be a string, a number, or null; correlation between
// a request and its response always happens through the canonical string
// form returned by IDString.
type RequestId any

// IDString returns the canonical string form of a RequestId, used as the
// correlation key in pending-request tables. Integers and strings that
// represent the same value are treated as distinct on the wire (a client
// is expected to issue ids in a single, monotonic style), but this
// function guarantees a stable, comparable key for whichever style is used.
func IDString(id RequestId) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Error is the JSON-RPC error object. Code ranges are reserved per the
// spec: -32700/-32600/-32601/-32602/-32603 are standard, -32099..-32000
// are available for application-specific errors such as interceptor blocks.
type Error struct {
	Code    int         `json:"code" yaml:"code" mapstructure:"code"`
	Data    interface{} `json:"data,omitempty" yaml:"data,omitempty" mapstructure:"data,omitempty"`
	Message string      `json:"message" yaml:"message" mapstructure:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Request represents a JSON-RPC request message.
type Request struct {
	Id      RequestId       `json:"id" yaml:"id" mapstructure:"id"`
	Jsonrpc string          `json:"jsonrpc" yaml:"jsonrpc" mapstructure:"jsonrpc"`
	Method  string          `json:"method" yaml:"method" mapstructure:"method"`
	Params  json.RawMessage `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params,omitempty"`
}

// UnmarshalJSON is a custom JSON unmarshaler for the Request type.
func (m *Request) UnmarshalJSON(data []byte) error {
	required := struct {
		Id      *RequestId       `json:"id" yaml:"id" mapstructure:"id"`
		Jsonrpc *string          `json:"jsonrpc" yaml:"jsonrpc" mapstructure:"jsonrpc"`
		Method  *string          `json:"method" yaml:"method" mapstructure:"method"`
		Params  *json.RawMessage `json:"params" yaml:"params" mapstructure:"params"`
	}{}
	if err := json.Unmarshal(data, &required); err != nil {
		return err
	}
	if required.Id == nil {
		return errors.New("field id in Request: required")
	}
	if required.Jsonrpc == nil {
		return errors.New("field jsonrpc in Request: required")
	}
	if required.Method == nil {
		return errors.New("field method in Request: required")
	}
	if *required.Jsonrpc != Version {
		return fmt.Errorf("unsupported jsonrpc version: %q", *required.Jsonrpc)
	}
	if *required.Method == "" {
		return errors.New("field method in Request: must not be empty")
	}
	if required.Params == nil {
		required.Params = new(json.RawMessage)
	}
	m.Id = *required.Id
	m.Jsonrpc = *required.Jsonrpc
	m.Method = *required.Method
	m.Params = *required.Params
	return nil
}

// Notification is a JSON-RPC notification message: a request with no id
// and therefore no expected response.
type Notification struct {
	Jsonrpc string          `json:"jsonrpc" yaml:"jsonrpc" mapstructure:"jsonrpc"`
	Method  string          `json:"method" yaml:"method" mapstructure:"method"`
	Params  json.RawMessage `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params,omitempty"`
}

// UnmarshalJSON is a custom JSON unmarshaler for the Notification type.
func (m *Notification) UnmarshalJSON(data []byte) error {
	required := struct {
		Jsonrpc *string          `json:"jsonrpc" yaml:"jsonrpc" mapstructure:"jsonrpc"`
		Method  *string          `json:"method" yaml:"method" mapstructure:"method"`
		Params  *json.RawMessage `json:"params" yaml:"params" mapstructure:"params"`
		Id      *json.RawMessage `json:"id" yaml:"id" mapstructure:"id"`
	}{}
	if err := json.Unmarshal(data, &required); err != nil {
		return err
	}
	if required.Jsonrpc == nil {
		return errors.New("field jsonrpc in Notification: required")
	}
	if required.Method == nil {
		return errors.New("field method in Notification: required")
	}
	if required.Id != nil {
		return errors.New("field id in Notification: not allowed")
	}
	m.Jsonrpc = *required.Jsonrpc
	m.Method = *required.Method
	if required.Params != nil {
		m.Params = *required.Params
	}
	return nil
}

// Response represents a JSON-RPC response message. Exactly one of Result
// and Error is present.
type Response struct {
	Id      RequestId       `json:"id" yaml:"id" mapstructure:"id"`
	Jsonrpc string          `json:"jsonrpc" yaml:"jsonrpc" mapstructure:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty" yaml:"result,omitempty" mapstructure:"result,omitempty"`
	Error   *Error          `json:"error,omitempty" yaml:"error,omitempty" mapstructure:"error,omitempty"`
}

// NewResponse creates a new successful Response instance with the specified id and result.
func NewResponse(id RequestId, data []byte) *Response {
	return &Response{
		Id:      id,
		Jsonrpc: Version,
		Result:  data,
	}
}

// NewErrorResponse creates a new Response carrying an error.
func NewErrorResponse(id RequestId, err *Error) *Response {
	return &Response{
		Id:      id,
		Jsonrpc: Version,
		Error:   err,
	}
}

// UnmarshalJSON is a custom JSON unmarshaler for the Response type.
func (m *Response) UnmarshalJSON(data []byte) error {
	required := struct {
		Id      *RequestId       `json:"id" yaml:"id" mapstructure:"id"`
		Jsonrpc *string          `json:"jsonrpc" yaml:"jsonrpc" mapstructure:"jsonrpc"`
		Result  *json.RawMessage `json:"result" yaml:"result" mapstructure:"result"`
		Error   *Error           `json:"error" yaml:"error" mapstructure:"error"`
	}{}
	if err := json.Unmarshal(data, &required); err != nil {
		return err
	}
	if required.Id == nil {
		return errors.New("field id in Response: required")
	}
	if required.Jsonrpc == nil {
		return errors.New("field jsonrpc in Response: required")
	}
	m.Id = *required.Id
	m.Jsonrpc = *required.Jsonrpc
	if required.Result != nil {
		m.Result = *required.Result
	}
	m.Error = required.Error
	if required.Result == nil && required.Error == nil {
		return errors.New("response must carry exactly one of result or error")
	}
	if required.Result != nil && required.Error != nil {
		return errors.New("response must not carry both result and error")
	}
	return nil
}
