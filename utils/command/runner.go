// Package command runs shell commands on the local host.
package command

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("bootstrap.command")

const defaultShell = "/bin/bash"

// Runner executes commands on the target system.
type Runner interface {
	Run(ctx context.Context, cmd string) (stdout string, stderr string, err error)
}

// InputRunner is a Runner that can also feed data to the command's stdin.
type InputRunner interface {
	Runner
	RunWithInput(ctx context.Context, cmd string, stdin string) (stdout string, stderr string, err error)
}

// Option configures a Local runner.
type Option func(*Local)

// WithShell overrides the shell used to interpret commands (default /bin/bash).
func WithShell(shell string) Option {
	return func(l *Local) {
		shell = strings.TrimSpace(shell)
		if shell != "" {
			l.shell = shell
		}
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) Option {
	return func(l *Local) {
		l.env = append(l.env, env...)
	}
}

// Local runs commands through a shell on the current machine.
type Local struct {
	shell string
	env   []string
}

// NewLocal constructs a Local runner.
func NewLocal(opts ...Option) *Local {
	l := &Local{shell: defaultShell}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Run executes cmd and returns its captured stdout/stderr.
func (l *Local) Run(ctx context.Context, cmd string) (string, string, error) {
	return l.RunWithInput(ctx, cmd, "")
}

// RunWithInput executes cmd with stdin attached to the provided string.
func (l *Local) RunWithInput(ctx context.Context, cmd string, stdin string) (string, string, error) {
	c := exec.CommandContext(ctx, l.shell, "-c", cmd)
	if len(l.env) > 0 {
		c.Env = append(c.Environ(), l.env...)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if stdin != "" {
		c.Stdin = strings.NewReader(stdin)
	}

	logger.Tracef("exec: %s", cmd)
	err := c.Run()
	if err != nil {
		logger.Debugf("command failed: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), stderr.String(), err
}

// Quote wraps value in single quotes for safe interpolation into a shell command.
func Quote(value string) string {
	if value == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}

var _ InputRunner = (*Local)(nil)
