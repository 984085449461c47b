// Package privilege obtains a runner that executes commands as root on the local host.
package privilege

import (
	"context"
	"fmt"
	"strings"

	"github.com/juju/loggo"

	"github.com/BrianJOC/workstation-bootstrap/utils/command"
)

var logger = loggo.GetLogger("bootstrap.privilege")

// Method describes how elevation is performed.
type Method string

const (
	// MethodRoot runs commands directly because the process is already root.
	MethodRoot Method = "root"
	// MethodSudo uses cached or passwordless sudo (sudo -n).
	MethodSudo Method = "sudo"
	// MethodSudoPassword feeds a password to sudo on stdin for every command.
	MethodSudoPassword Method = "sudo-password"
)

// Password wraps the credential used for privilege escalation.
type Password struct {
	Value string
}

// ElevatedRunner executes commands as root using the chosen method.
type ElevatedRunner struct {
	base     command.InputRunner
	method   Method
	password string
}

// Method returns how elevation is performed.
func (r *ElevatedRunner) Method() Method {
	return r.method
}

// Run executes cmd with elevated privileges and returns stdout/stderr.
func (r *ElevatedRunner) Run(ctx context.Context, cmd string) (string, string, error) {
	return runPrivileged(ctx, r.base, r.method, r.password, cmd)
}

// Acquire verifies that root access is available and returns a runner for it.
// euid is the effective user ID of the current process. An empty password
// means only root and passwordless sudo are tried; if sudo then asks for a
// password, PasswordRequiredError is returned so the caller can prompt.
func Acquire(ctx context.Context, base command.InputRunner, euid int, password Password) (*ElevatedRunner, error) {
	if base == nil {
		return nil, NilRunnerError{}
	}
	if euid == 0 {
		logger.Debugf("running as root; no elevation needed")
		return &ElevatedRunner{base: base, method: MethodRoot}, nil
	}

	_, stderr, err := runPrivileged(ctx, base, MethodSudo, "", "true")
	if err == nil {
		logger.Debugf("passwordless sudo available")
		return &ElevatedRunner{base: base, method: MethodSudo}, nil
	}
	if classified := classifySudoError(err, stderr); !needsPassword(stderr) {
		return nil, classified
	}

	if password.Value == "" {
		return nil, PasswordRequiredError{}
	}
	_, stderr, err = runPrivileged(ctx, base, MethodSudoPassword, password.Value, "true")
	if err != nil {
		return nil, classifySudoError(err, stderr)
	}
	logger.Debugf("sudo password accepted")
	return &ElevatedRunner{base: base, method: MethodSudoPassword, password: password.Value}, nil
}

func runPrivileged(ctx context.Context, r command.InputRunner, method Method, password, cmd string) (string, string, error) {
	quoted := command.Quote(cmd)
	switch method {
	case MethodRoot:
		return r.Run(ctx, cmd)
	case MethodSudo:
		return r.Run(ctx, fmt.Sprintf("sudo -n bash -c %s", quoted))
	case MethodSudoPassword:
		return r.RunWithInput(ctx, fmt.Sprintf("sudo -S -p '' -k bash -c %s", quoted), password+"\n")
	default:
		return "", "", fmt.Errorf("unsupported elevation method %q", method)
	}
}

func needsPassword(stderr string) bool {
	return strings.Contains(stderr, "a password is required") ||
		strings.Contains(stderr, "a terminal is required")
}

func classifySudoError(err error, stderr string) error {
	if err == nil {
		return nil
	}

	if strings.Contains(stderr, "sudo: command not found") || strings.Contains(stderr, "sudo: not found") {
		return SudoNotInstalledError{Stderr: stderr}
	}

	if strings.Contains(stderr, "is not in the sudoers file") || strings.Contains(stderr, "may not run sudo") {
		return SudoPermissionError{Stderr: stderr}
	}

	if isAuthenticationFailure(stderr) || strings.Contains(stderr, "Sorry, try again.") {
		return SudoAuthenticationError{Err: err}
	}

	if needsPassword(stderr) {
		return PasswordRequiredError{}
	}

	return SudoUnknownError{Err: err, Stderr: stderr}
}

func isAuthenticationFailure(stderr string) bool {
	return strings.Contains(stderr, "Authentication failure") ||
		strings.Contains(stderr, "authentication failure") ||
		strings.Contains(stderr, "incorrect password")
}

var _ command.Runner = (*ElevatedRunner)(nil)
