package transport

import "fmt"

// Kind classifies a transport-level error for retry and propagation
// decisions; the session, not the transport, owns the retry policy, but
// it can only apply one once the transport tells it whether the failure
// is retryable.
type Kind string

const (
	KindConnection    Kind = "transport.connection"
	KindIO            Kind = "transport.io"
	KindHTTP          Kind = "transport.http"
	KindSerialization Kind = "transport.serialization"
	KindTimeout       Kind = "transport.timeout"
	KindNotConnected  Kind = "transport.not_connected"
	KindInvalidConfig Kind = "transport.invalid_config"
)

// Error wraps an underlying cause with a Kind so callers can branch on
// retryability without string-matching error messages.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int // populated for KindHTTP
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetryable reports whether the session may retry the operation that
// produced this error. Connection failures, generic I/O, HTTP 5xx, and
// SSE stream errors are retryable; spawn failures, invalid configuration,
// auth errors, 4xx, and parse errors are not.
func (e *Error) IsRetryable() bool {
	switch e.Kind {
	case KindConnection, KindIO:
		return true
	case KindHTTP:
		return e.StatusCode >= 500
	default:
		return false
	}
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NewConnectionError reports a failed or lost connection attempt.
func NewConnectionError(message string, err error) *Error {
	return newError(KindConnection, message, err)
}

// NewIOError reports a send/receive failure on an already-connected
// transport.
func NewIOError(message string, err error) *Error {
	return newError(KindIO, message, err)
}

// NewHTTPError reports a non-2xx HTTP response; statusCode drives
// IsRetryable.
func NewHTTPError(statusCode int, message string) *Error {
	e := newError(KindHTTP, message, nil)
	e.StatusCode = statusCode
	return e
}

// NewSerializationError reports a frame that failed to parse.
func NewSerializationError(message string, err error) *Error {
	return newError(KindSerialization, message, err)
}

// NewTimeoutError reports a deadline exceeded while waiting for a
// response; distinct from network errors per the error taxonomy.
func NewTimeoutError(message string) *Error {
	return newError(KindTimeout, message, nil)
}

// NewNotConnectedError reports an operation attempted before connect.
func NewNotConnectedError(message string) *Error {
	return newError(KindNotConnected, message, nil)
}

// NewInvalidConfigError reports a construction-time validation failure;
// always fatal, never retried.
func NewInvalidConfigError(message string) *Error {
	return newError(KindInvalidConfig, message, nil)
}
