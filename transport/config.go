package transport

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/flowmesh-io/mcpproxy/auth"
)

// Kind of transport a Config describes.
type ConfigKind string

const (
	ConfigKindStdio      ConfigKind = "stdio"
	ConfigKindHttpSse    ConfigKind = "http-sse"
	ConfigKindHttpStream ConfigKind = "http-stream"
)

// RemoteStdioConfig, when attached to a Stdio Config, runs the configured
// command over SSH on Host instead of spawning it as a local child
// process. SecretResource resolves to the SSH credential via viant/scy.
type RemoteStdioConfig struct {
	Host           string
	SSHUser        string
	SecretResource string
}

// Config is the declarative, sum-type description of a transport
// connection. Exactly one of Stdio, HttpSse, HttpStream is non-nil;
// dial.New(ctx, cfg, ...) switches on Kind() to build the right driver.
type Config struct {
	Stdio      *StdioConfig
	HttpSse    *HttpSseConfig
	HttpStream *HttpStreamConfig
}

// Kind reports which transport variant cfg describes.
func (c Config) Kind() ConfigKind {
	switch {
	case c.Stdio != nil:
		return ConfigKindStdio
	case c.HttpSse != nil:
		return ConfigKindHttpSse
	default:
		return ConfigKindHttpStream
	}
}

// Validate applies the construction-time rules from the transport
// contract: stdio requires a non-empty command; HTTP variants require an
// http/https URL and https for any non-localhost host; an OAuth
// credential's token endpoint must itself be https.
func (c Config) Validate() error {
	switch {
	case c.Stdio != nil:
		return c.Stdio.validate()
	case c.HttpSse != nil:
		return c.HttpSse.validate()
	case c.HttpStream != nil:
		return c.HttpStream.validate()
	default:
		return NewInvalidConfigError("transport config has no variant set")
	}
}

// StdioConfig spawns a child process and speaks newline-delimited JSON-RPC
// over its stdio.
type StdioConfig struct {
	Command    string
	Args       []string
	WorkingDir string
	Env        map[string]string
	Timeout    time.Duration
	Remote     *RemoteStdioConfig
}

func (c *StdioConfig) validate() error {
	if strings.TrimSpace(c.Command) == "" {
		return NewInvalidConfigError("stdio transport requires a non-empty command")
	}
	if c.Remote != nil && strings.TrimSpace(c.Remote.Host) == "" {
		return NewInvalidConfigError("remote stdio config requires a non-empty host")
	}
	return nil
}

// HttpSseConfig drives the dual-dialect (Legacy/Modern) HTTP+SSE
// transport.
type HttpSseConfig struct {
	BaseURL string
	Headers map[string]string
	Auth    auth.Credential
	Timeout time.Duration
}

func (c *HttpSseConfig) validate() error {
	return validateHTTPEndpoint(c.BaseURL, c.Auth)
}

// HttpStreamConfig drives the strict Modern Streamable HTTP transport.
type HttpStreamConfig struct {
	BaseURL           string
	Headers           map[string]string
	Auth              auth.Credential
	Timeout           time.Duration
	Compression       bool
	FlowControlWindow int
}

func (c *HttpStreamConfig) validate() error {
	return validateHTTPEndpoint(c.BaseURL, c.Auth)
}

func validateHTTPEndpoint(rawURL string, credential auth.Credential) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return NewInvalidConfigError(fmt.Sprintf("invalid base url %q", rawURL))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewInvalidConfigError(fmt.Sprintf("base url %q must use http or https", rawURL))
	}
	if u.Scheme == "http" && !isLocalHost(u.Hostname()) {
		return NewInvalidConfigError(fmt.Sprintf("non-localhost host %q requires https", u.Hostname()))
	}
	if oauth, ok := credential.(*auth.OAuth); ok {
		tokenURL, err := url.Parse(oauth.TokenURL)
		if err != nil || tokenURL.Scheme != "https" {
			return NewInvalidConfigError("oauth token endpoint must be https")
		}
	}
	return nil
}

func isLocalHost(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// ValidateSessionID applies the §4.4.5 security rule used by the HTTP+SSE
// client driver: a session id captured off the wire must be at least 16
// characters from the charset [A-Za-z0-9-] before it is echoed back on
// subsequent requests. The Streamable HTTP driver does not call it and
// echoes the Mcp-Session-Id header as received.
func ValidateSessionID(id string) error {
	if len(id) < 16 {
		return NewInvalidConfigError(fmt.Sprintf("session id %q is shorter than the minimum 16 characters", id))
	}
	if !sessionIDPattern.MatchString(id) {
		return NewInvalidConfigError(fmt.Sprintf("session id %q contains characters outside [A-Za-z0-9-]", id))
	}
	return nil
}

// Info is a snapshot of per-transport counters and metadata, refreshed on
// every Send/Notify/receive.
type Info struct {
	Connected             bool
	ConnectedSince        *time.Time
	RequestsSent          uint64
	ResponsesReceived     uint64
	NotificationsSent     uint64
	NotificationsReceived uint64
	Errors                uint64
	Metadata              map[string]interface{}
}
