package stdio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flowmesh-io/mcpproxy"
	"github.com/flowmesh-io/mcpproxy/transport"
	"github.com/flowmesh-io/mcpproxy/transport/client/base"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
	"github.com/viant/gosh/runner/ssh"
	"github.com/viant/scy/cred/secret"
	cssh "golang.org/x/crypto/ssh"
)

// Client drives the stdio transport: it spawns (or, with a Remote config,
// SSHes to) the configured command and speaks newline-delimited JSON-RPC
// over its stdin/stdout.
type Client struct {
	base      *base.Client
	counters  transport.Counters
	client    runner.Runner
	secret    secret.Resource
	sshConfig *cssh.ClientConfig
	host      string
	command   string
	args      []string
	env       map[string]string
	ctx       context.Context
}

// Info reports connection counters and metadata for this transport.
func (c *Client) Info() transport.Info {
	return c.counters.Snapshot()
}

func (c *Client) start(ctx context.Context) error {
	if err := c.ensureSSHConfig(ctx); err != nil {
		return err
	}
	var options = []runner.Option{
		runner.AsPipeline(),
	}
	if c.sshConfig != nil {
		c.client = ssh.New(c.host, c.sshConfig, options...)
	} else {
		c.client = local.New(options...)
	}
	c.base.Transport = &Transport{client: c.client}
	cmd := c.command
	if len(c.args) > 0 {
		cmd = fmt.Sprintf("%s %s", c.command, strings.Join(c.args, " "))
	}
	go c.startCommand(ctx, cmd)
	return nil
}

func (c *Client) startCommand(ctx context.Context, cmd string) {
	output, code, err := c.client.Run(ctx, cmd, runner.WithEnvironment(c.env), runner.WithListener(c.stdoutListener()))
	if err != nil {
		c.counters.IncErrors()
		c.base.SetError(transport.NewConnectionError("stdio command failed to run", err))
		return
	}
	if code != -1 {
		terr := transport.NewIOError(fmt.Sprintf("command exited with code %d", code), fmt.Errorf("%v", output))
		c.counters.IncErrors()
		c.base.SetError(terr)
	}
}

func (c *Client) stdoutListener() runner.Listener {
	var builder strings.Builder
	return func(stdout string, hasMore bool) {
		index := strings.Index(stdout, "\n")
		if index != -1 {
			defer builder.Reset()
			builder.WriteString(stdout[:index])
			data := []byte(builder.String())
			c.counters.IncResponsesReceived()
			c.base.HandleMessage(c.ctx, data)
			return
		}
		builder.WriteString(stdout)
	}
}

func (c *Client) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	if err := c.base.Notify(ctx, notification); err != nil {
		c.counters.IncErrors()
		return err
	}
	c.counters.IncNotificationsSent()
	return nil
}

func (c *Client) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	c.counters.IncRequestsSent()
	response, err := c.base.Send(ctx, request)
	if err != nil {
		c.counters.IncErrors()
	}
	return response, err
}

func (c *Client) ensureSSHConfig(ctx context.Context) error {
	if c.sshConfig != nil || c.host == "" {
		return nil
	}
	if c.secret != "" {
		secrets := secret.New()
		cred, err := secrets.GetCredentials(ctx, string(c.secret))
		if err != nil {
			return transport.NewConnectionError("failed to resolve ssh credential", err)
		}
		c.sshConfig, err = cred.SSH.Config(ctx)
		if err != nil {
			return transport.NewConnectionError("failed to build ssh config", err)
		}
		return nil
	}
	return transport.NewInvalidConfigError(fmt.Sprintf("sshConfig is required but not provided for host: %s", c.host))
}

// New builds a stdio transport client from cfg. A non-nil cfg.Remote runs
// the command over SSH on Remote.Host instead of as a local child process.
func New(cfg *transport.StdioConfig, options ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		command: cfg.Command,
		args:    append([]string{}, cfg.Args...),
		env:     cloneEnv(cfg.Env),
		ctx:     context.Background(),
		base: &base.Client{
			Pending:    transport.NewPendingRequests(),
			RunTimeout: cfg.Timeout,
			Transport:  &Transport{},
			Handler:    &base.Handler{},
			Logger:     jsonrpc.DefaultLogger,
		},
	}
	if c.base.RunTimeout == 0 {
		c.base.RunTimeout = 15 * time.Minute
	}
	if cfg.Remote != nil {
		c.host = cfg.Remote.Host
		c.secret = secret.Resource(cfg.Remote.SecretResource)
	}
	for _, opt := range options {
		opt(c)
	}
	c.counters.SetMetadata("command", c.command)
	if c.host != "" {
		c.counters.SetMetadata("remote_host", c.host)
	}
	err := c.start(c.ctx)
	if err == nil {
		c.counters.SetConnected(true)
	}
	return c, err
}

func cloneEnv(env map[string]string) map[string]string {
	if env == nil {
		return nil
	}
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}
