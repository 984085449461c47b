package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BrianJOC/workstation-bootstrap/utils/command"
	"github.com/BrianJOC/workstation-bootstrap/utils/pkginstaller"
)

// Facts are host properties established once before any step runs.
type Facts struct {
	// Arch is the Debian architecture name (amd64, arm64, ...).
	Arch string
	// Codename is the distribution release codename (bookworm, noble, ...).
	Codename string
	// DistroID is the apt distribution family (debian or ubuntu).
	DistroID string
	// User is the invoking (non-root) user.
	User string
	// Home is the invoking user's home directory.
	Home string
}

// Once runs an action at most once per run and remembers its outcome.
type Once struct {
	done bool
	err  error
}

// Do invokes fn on the first call only; later calls return the first result.
func (o *Once) Do(fn func() error) error {
	if o.done {
		return o.err
	}
	o.done = true
	o.err = fn()
	return o.err
}

// Done reports whether the guarded action has already been triggered.
func (o *Once) Done() bool {
	return o.done
}

// Env is the execution context handed to every step.
type Env struct {
	Facts Facts
	// Runner executes commands as the invoking user.
	Runner command.Runner
	// StateDir holds stamps that steps use as idempotence markers.
	StateDir string

	// AptIndex guards the package index refresh.
	AptIndex Once
	// FontCache guards the font cache rebuild.
	FontCache Once

	privileged   command.Runner
	privilegeErr error
	privAttempt  bool
	onWarning    func(Warning)
}

// EnvOption mutates Env configuration.
type EnvOption func(*Env)

// WithPrivileged installs an already-elevated runner.
func WithPrivileged(r command.Runner) EnvOption {
	return func(e *Env) {
		e.SetPrivileged(r, nil)
	}
}

// WithStateDir sets the directory for idempotence stamps.
func WithStateDir(dir string) EnvOption {
	return func(e *Env) {
		e.StateDir = dir
	}
}

// NewEnv constructs an Env for the given facts and unprivileged runner.
func NewEnv(facts Facts, runner command.Runner, opts ...EnvOption) *Env {
	e := &Env{
		Facts:  facts,
		Runner: runner,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// SetPrivileged records the outcome of privilege acquisition.
func (e *Env) SetPrivileged(r command.Runner, err error) {
	e.privAttempt = true
	e.privileged = r
	e.privilegeErr = err
}

// PrivilegeResolved reports whether privilege acquisition already happened this run.
func (e *Env) PrivilegeResolved() bool {
	return e.privAttempt
}

// Privileged returns the elevated runner or a PrivilegeError when unavailable.
func (e *Env) Privileged(meta Metadata) (command.Runner, error) {
	if e.privileged == nil {
		return nil, PrivilegeError{StepID: meta.ID, Err: e.privilegeErr}
	}
	return e.privileged, nil
}

// Perform runs fn as the declared action actionID of the step described by meta.
// Failures of optional actions become warnings; failures of required actions
// are returned as ActionError.
func (e *Env) Perform(meta Metadata, actionID string, fn func() error) error {
	action, ok := meta.Action(actionID)
	if !ok {
		return UndeclaredActionError{StepID: meta.ID, ActionID: actionID}
	}
	err := fn()
	if err == nil {
		return nil
	}
	if action.Policy == PolicyOptional {
		e.Warn(Warning{StepID: meta.ID, ActionID: actionID, Err: err})
		return nil
	}
	return ActionError{StepID: meta.ID, ActionID: actionID, Err: err}
}

// PerformItem is Perform for one item of an action, such as a single optional
// package. When an optional item fails it is stamped under StateDir so guards
// stop waiting for it on later runs; removing the stamp retries it.
func (e *Env) PerformItem(meta Metadata, actionID, item string, fn func() error) error {
	return e.Perform(meta, actionID, func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if action, ok := meta.Action(actionID); ok && action.Policy == PolicyOptional {
			if markErr := e.markAttempted(meta.ID, item); markErr != nil {
				logger.Warningf("%s: stamp %s: %v", meta.ID, item, markErr)
			}
		}
		return err
	})
}

// Attempted reports whether an optional item of stepID failed in an earlier run.
func (e *Env) Attempted(stepID, item string) bool {
	if e.StateDir == "" {
		return false
	}
	_, err := os.Stat(e.attemptPath(stepID, item))
	return err == nil
}

func (e *Env) markAttempted(stepID, item string) error {
	if e.StateDir == "" {
		return nil
	}
	path := e.attemptPath(stepID, item)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create attempt dir: %w", err)
	}
	return os.WriteFile(path, nil, 0o644)
}

func (e *Env) attemptPath(stepID, item string) string {
	return filepath.Join(e.StateDir, "attempted", stepID, strings.ReplaceAll(item, "/", "_"))
}

// Warn records a non-fatal problem for the running step.
func (e *Env) Warn(w Warning) {
	logger.Warningf("%s: %s", w.StepID, w.String())
	if e.onWarning != nil {
		e.onWarning(w)
	}
}

func (e *Env) setWarningSink(fn func(Warning)) {
	e.onWarning = fn
}

// HomePath joins rel onto the invoking user's home directory.
func (e *Env) HomePath(rel string) string {
	return filepath.Join(e.Facts.Home, rel)
}

// ProfilePath is the login profile that receives PATH exports.
func (e *Env) ProfilePath() string {
	return e.HomePath(".profile")
}

// DownloadDir is where steps stage downloaded archives.
func (e *Env) DownloadDir() string {
	base := e.StateDir
	if base == "" {
		base = filepath.Join(os.TempDir(), "bootstrap")
	}
	return filepath.Join(base, "downloads")
}

// RefreshAptIndex runs apt-get update through root at most once per run.
func (e *Env) RefreshAptIndex(ctx context.Context, root command.Runner) error {
	return e.AptIndex.Do(func() error {
		return pkginstaller.Update(ctx, root)
	})
}

// InstallPackages installs the missing packages among names through root,
// refreshing the shared package index first if anything needs installing.
// An empty list installs nothing.
func (e *Env) InstallPackages(ctx context.Context, root command.Runner, names []string) (*pkginstaller.Result, error) {
	if len(names) == 0 {
		return &pkginstaller.Result{}, nil
	}
	return pkginstaller.Ensure(ctx, root, names, pkginstaller.WithRefresh(func() error {
		return e.RefreshAptIndex(ctx, root)
	}))
}
