// Package systemuser inspects and adjusts the invoking user's account.
package systemuser

import (
	"context"
	"fmt"
	"strings"

	"github.com/BrianJOC/workstation-bootstrap/utils/command"
)

// InGroup reports whether username is a member of group.
func InGroup(ctx context.Context, r command.Runner, username, group string) (bool, error) {
	if r == nil {
		return false, RunnerError{}
	}
	if err := validateNames(username, group); err != nil {
		return false, err
	}
	stdout, stderr, err := r.Run(ctx, fmt.Sprintf("id -nG %s", command.Quote(username)))
	if err != nil {
		return false, CommandError{Step: "id", Err: err, Stderr: stderr}
	}
	for _, g := range strings.Fields(stdout) {
		if g == group {
			return true, nil
		}
	}
	return false, nil
}

// AddToGroup appends group to username's supplementary groups. The group
// must already exist. Requires a privileged runner.
func AddToGroup(ctx context.Context, root command.Runner, username, group string) error {
	if root == nil {
		return RunnerError{}
	}
	if err := validateNames(username, group); err != nil {
		return err
	}
	cmd := fmt.Sprintf("usermod -aG %s %s", command.Quote(group), command.Quote(username))
	return runStep(ctx, root, "usermod -aG", cmd)
}

// LoginShell returns username's login shell from the passwd database.
func LoginShell(ctx context.Context, r command.Runner, username string) (string, error) {
	if r == nil {
		return "", RunnerError{}
	}
	if err := validateNames(username); err != nil {
		return "", err
	}
	stdout, stderr, err := r.Run(ctx, fmt.Sprintf("getent passwd %s", command.Quote(username)))
	if err != nil {
		return "", CommandError{Step: "getent passwd", Err: err, Stderr: stderr}
	}
	fields := strings.Split(strings.TrimSpace(stdout), ":")
	if len(fields) < 7 {
		return "", ValidationError{Reason: fmt.Sprintf("malformed passwd entry for %s", username)}
	}
	return fields[6], nil
}

// SetLoginShell changes username's login shell. Requires a privileged runner.
func SetLoginShell(ctx context.Context, root command.Runner, username, shell string) error {
	if root == nil {
		return RunnerError{}
	}
	if err := validateNames(username); err != nil {
		return err
	}
	shell = strings.TrimSpace(shell)
	if !strings.HasPrefix(shell, "/") {
		return ValidationError{Reason: "shell must be an absolute path"}
	}
	cmd := fmt.Sprintf("usermod -s %s %s", command.Quote(shell), command.Quote(username))
	return runStep(ctx, root, "usermod -s", cmd)
}

func validateNames(names ...string) error {
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return ValidationError{Reason: "name is required"}
		}
		if strings.ContainsAny(name, " \t:") {
			return ValidationError{Reason: fmt.Sprintf("invalid name %q", name)}
		}
	}
	return nil
}

func runStep(ctx context.Context, r command.Runner, step, cmd string) error {
	_, stderr, err := r.Run(ctx, cmd)
	if err != nil {
		return CommandError{Step: step, Err: err, Stderr: stderr}
	}
	return nil
}
