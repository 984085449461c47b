// Package gitfetch keeps a local checkout of a remote repository current.
package gitfetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BrianJOC/workstation-bootstrap/utils/command"
)

// Result reports what Sync did.
type Result struct {
	Dest    string
	Cloned  bool
	Updated bool
}

// Option configures Sync.
type Option func(*options)

type options struct {
	branch  string
	shallow bool
}

// WithBranch checks out branch instead of the remote default.
func WithBranch(branch string) Option {
	return func(o *options) {
		o.branch = strings.TrimSpace(branch)
	}
}

// WithFullHistory clones the full history instead of a depth-1 snapshot.
func WithFullHistory() Option {
	return func(o *options) {
		o.shallow = false
	}
}

// IsCheckout reports whether dest already holds a git working tree.
func IsCheckout(dest string) bool {
	info, err := os.Stat(filepath.Join(dest, ".git"))
	return err == nil && info.IsDir()
}

// Sync clones repo into dest, or fast-forwards dest when it is already a
// checkout. A second Sync never clones again.
func Sync(ctx context.Context, r command.Runner, repo, dest string, opts ...Option) (*Result, error) {
	if r == nil {
		return nil, RunnerError{}
	}
	repo = strings.TrimSpace(repo)
	dest = strings.TrimSpace(dest)
	if repo == "" {
		return nil, ValidationError{Reason: "repository url is required"}
	}
	if dest == "" {
		return nil, ValidationError{Reason: "destination is required"}
	}

	cfg := options{shallow: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	result := &Result{Dest: dest}
	if IsCheckout(dest) {
		cmd := fmt.Sprintf("git -C %s pull --ff-only", command.Quote(dest))
		if _, stderr, err := r.Run(ctx, cmd); err != nil {
			return nil, CommandError{Step: "pull", Err: err, Stderr: stderr}
		}
		result.Updated = true
		return result, nil
	}

	args := []string{"git", "clone"}
	if cfg.shallow {
		args = append(args, "--depth", "1")
	}
	if cfg.branch != "" {
		args = append(args, "--branch", command.Quote(cfg.branch))
	}
	args = append(args, command.Quote(repo), command.Quote(dest))
	if _, stderr, err := r.Run(ctx, strings.Join(args, " ")); err != nil {
		return nil, CommandError{Step: "clone", Err: err, Stderr: stderr}
	}
	result.Cloned = true
	return result, nil
}
