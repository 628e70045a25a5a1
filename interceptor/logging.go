package interceptor

import "github.com/flowmesh-io/mcpproxy"

// Logging is a pass-through interceptor that logs every frame it sees, at
// debug level normally or info level when Verbose is set.
type Logging struct {
	base
	Verbose bool
	logger  jsonrpc.Logger
}

// NewLogging creates a Logging interceptor writing through logger.
func NewLogging(logger jsonrpc.Logger, verbose bool) *Logging {
	return &Logging{logger: logger, Verbose: verbose}
}

func (l *Logging) Name() string     { return "logging" }
func (l *Logging) Priority() uint32 { return 10 }

func (l *Logging) ShouldIntercept(mc *MessageContext) bool { return true }

func (l *Logging) Intercept(mc *MessageContext) (InterceptionResult, error) {
	if l.logger != nil {
		method := mc.Message.Method()
		if l.Verbose {
			l.logger.Infof("[%s] %s %s", mc.Direction, mc.Message.Type, method)
		} else {
			l.logger.Debugf("[%s] %s %s", mc.Direction, mc.Message.Type, method)
		}
	}
	return InterceptionResult{Message: mc.Message}, nil
}
