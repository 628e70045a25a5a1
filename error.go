package jsonrpc

// NewParsingError creates a new parse error.
func NewParsingError(err error, data []byte) *Error {
	return NewInnerError(ParseError, err.Error(), string(data))
}

// NewInternalError creates a new internal error.
func NewInternalError(err error) *Error {
	return NewInnerError(InternalError, err.Error(), nil)
}

// NewInvalidRequest creates a new invalid request error.
func NewInvalidRequest(err error) *Error {
	return NewInnerError(InvalidRequest, err.Error(), nil)
}

// NewInvalidParams creates a new invalid params error.
func NewInvalidParams(err error) *Error {
	return NewInnerError(InvalidParams, err.Error(), nil)
}

// NewMethodNotFound creates a new method-not-found error for method.
func NewMethodNotFound(method string) *Error {
	return NewInnerError(MethodNotFound, "method not found: "+method, nil)
}

// NewRequestBlocked creates the application error returned when an
// outgoing request is blocked by the interceptor chain.
func NewRequestBlocked(reasoning string) *Error {
	return NewInnerError(CodeRequestBlocked, "request blocked by interceptor: "+reasoning, nil)
}

// NewResponseBlocked creates the application error returned when an
// incoming response is blocked by the interceptor chain.
func NewResponseBlocked(reasoning string) *Error {
	return NewInnerError(CodeResponseBlocked, "response blocked by interceptor: "+reasoning, nil)
}

// NewNotInitialized creates the error returned when a request is attempted
// before the client session has completed the initialize handshake.
func NewNotInitialized() *Error {
	return NewInnerError(CodeNotInitialized, "session has not completed the initialize handshake", nil)
}

// NewInitializationFailed creates the error that moves a client session to
// Error(msg): the initialize call itself failed or returned a malformed
// result.
func NewInitializationFailed(reason string) *Error {
	return NewInnerError(CodeInitializationFailed, "initialization failed: "+reason, nil)
}

// NewStateViolation creates the error returned when an operation is
// attempted that is illegal in the session's current state.
func NewStateViolation(reason string) *Error {
	return NewInnerError(CodeStateViolation, "illegal in current session state: "+reason, nil)
}
