// Package session drives the MCP client side of the proxy: the
// initialize handshake, the Disconnected→Connecting→Initializing→Ready
// state machine, request/response correlation with retry, and dispatch of
// server-initiated notifications to a caller-supplied handler.
package session

import "fmt"

// State is one node of the client session's lifecycle state machine.
type State int

const (
	Disconnected State = iota
	Connecting
	Initializing
	Ready
	Error
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Initializing:
		return "Initializing"
	case Ready:
		return "Ready"
	case Error:
		return "Error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
