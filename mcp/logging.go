package mcp

import (
	"encoding/json"
	"fmt"
)

// LogLevel is an MCP server log severity, ordered from most to least
// verbose.
type LogLevel string

const (
	LogLevelDebug    LogLevel = "debug"
	LogLevelInfo     LogLevel = "info"
	LogLevelNotice   LogLevel = "notice"
	LogLevelWarning  LogLevel = "warning"
	LogLevelError    LogLevel = "error"
	LogLevelCritical LogLevel = "critical"
)

var logLevelOrder = map[LogLevel]int{
	LogLevelDebug:    0,
	LogLevelInfo:     1,
	LogLevelNotice:   2,
	LogLevelWarning:  3,
	LogLevelError:    4,
	LogLevelCritical: 5,
}

// IsMoreVerboseThan reports whether l logs more detail than other.
func (l LogLevel) IsMoreVerboseThan(other LogLevel) bool {
	return logLevelOrder[l] < logLevelOrder[other]
}

// SetLevelRequest is the params of "logging/setLevel".
type SetLevelRequest struct {
	Level LogLevel `json:"level"`
}

// LoggingNotification carries a server log line, sent as
// "notifications/message".
type LoggingNotification struct {
	Level  LogLevel        `json:"level"`
	Data   json.RawMessage `json:"data"`
	Logger *string         `json:"logger,omitempty"`
}

// ProgressToken correlates a progress notification stream with the
// request that triggered it. It may be either a string or a number on the
// wire.
type ProgressToken struct {
	str string
	num int64
	isStr bool
}

// StringProgressToken builds a string-valued progress token.
func StringProgressToken(s string) ProgressToken { return ProgressToken{str: s, isStr: true} }

// NumberProgressToken builds a number-valued progress token.
func NumberProgressToken(n int64) ProgressToken { return ProgressToken{num: n} }

func (t ProgressToken) String() string {
	if t.isStr {
		return t.str
	}
	return fmt.Sprintf("%d", t.num)
}

// MarshalJSON renders the token as whichever JSON type it was built from.
func (t ProgressToken) MarshalJSON() ([]byte, error) {
	if t.isStr {
		return json.Marshal(t.str)
	}
	return json.Marshal(t.num)
}

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (t *ProgressToken) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = ProgressToken{str: s, isStr: true}
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("progress token must be a string or a number: %w", err)
	}
	*t = ProgressToken{num: n}
	return nil
}

// ProgressNotification reports partial completion of a long-running
// request, sent as "notifications/progress".
type ProgressNotification struct {
	ProgressToken ProgressToken `json:"progressToken"`
	Progress      float64       `json:"progress"`
	Total         *uint64       `json:"total,omitempty"`
}
