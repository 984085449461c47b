// Package pkginstaller installs Debian packages with apt.
package pkginstaller

import (
	"context"
	"fmt"
	"strings"

	"github.com/BrianJOC/workstation-bootstrap/utils/command"
)

// Result reports actions taken by Ensure.
type Result struct {
	Installed []string
	Skipped   []string
}

// Option configures Ensure behavior.
type Option func(*options)

type options struct {
	refresh func() error
	force   bool
}

// WithRefresh registers a hook that refreshes the package index before
// anything is installed. It is not called when every package is present.
func WithRefresh(fn func() error) Option {
	return func(opts *options) {
		opts.refresh = fn
	}
}

// WithForce installs every package even if dpkg already reports it.
func WithForce() Option {
	return func(opts *options) {
		opts.force = true
	}
}

// Installed reports whether dpkg considers packageName installed.
func Installed(ctx context.Context, r command.Runner, packageName string) (bool, error) {
	if r == nil {
		return false, RunnerError{}
	}
	packageName = strings.TrimSpace(packageName)
	if packageName == "" {
		return false, ValidationError{Reason: "package name is required"}
	}

	cmd := fmt.Sprintf("dpkg-query -W -f='${db:Status-Status}' %s", command.Quote(packageName))
	stdout, _, err := r.Run(ctx, cmd)
	if err != nil {
		// dpkg-query exits non-zero for packages it has never seen.
		return false, nil
	}
	return strings.TrimSpace(stdout) == "installed", nil
}

// Missing returns the packages from names that are not installed, in order.
func Missing(ctx context.Context, r command.Runner, names []string) ([]string, error) {
	var missing []string
	for _, name := range names {
		ok, err := Installed(ctx, r, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, strings.TrimSpace(name))
		}
	}
	return missing, nil
}

// Update refreshes the apt package index.
func Update(ctx context.Context, r command.Runner) error {
	if r == nil {
		return RunnerError{}
	}
	_, stderr, err := r.Run(ctx, "DEBIAN_FRONTEND=noninteractive apt-get update -y")
	if err != nil {
		return CommandError{Step: "apt-get update", Err: err, Stderr: stderr}
	}
	return nil
}

// Ensure installs the missing packages among names in a single apt-get call.
func Ensure(ctx context.Context, r command.Runner, names []string, opts ...Option) (*Result, error) {
	if r == nil {
		return nil, RunnerError{}
	}
	if len(names) == 0 {
		return nil, ValidationError{Reason: "at least one package is required"}
	}

	config := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&config)
		}
	}

	result := &Result{}
	var toInstall []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, ValidationError{Reason: "package name is required"}
		}
		if !config.force {
			ok, err := Installed(ctx, r, name)
			if err != nil {
				return nil, err
			}
			if ok {
				result.Skipped = append(result.Skipped, name)
				continue
			}
		}
		toInstall = append(toInstall, name)
	}
	if len(toInstall) == 0 {
		return result, nil
	}

	if config.refresh != nil {
		if err := config.refresh(); err != nil {
			return nil, err
		}
	}

	if err := runInstall(ctx, r, toInstall); err != nil {
		return nil, err
	}
	result.Installed = toInstall
	return result, nil
}

func runInstall(ctx context.Context, r command.Runner, names []string) error {
	quoted := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, command.Quote(name))
	}
	cmd := "DEBIAN_FRONTEND=noninteractive apt-get install -y " + strings.Join(quoted, " ")
	_, stderr, err := r.Run(ctx, cmd)
	if err != nil {
		return CommandError{Step: "apt-get install", Err: err, Stderr: stderr}
	}
	return nil
}
