package pkginstaller

import (
	"fmt"
	"strings"
)

// RunnerError indicates the installer was invoked without a runner.
type RunnerError struct{}

func (RunnerError) Error() string {
	return "runner is required"
}

// ValidationError captures invalid package inputs.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("package validation failed: %s", e.Reason)
}

// CommandError wraps execution failures from apt or dpkg.
type CommandError struct {
	Step   string
	Err    error
	Stderr string
}

func (e CommandError) Error() string {
	return fmt.Sprintf("%s failed: %v (%s)", e.Step, e.Err, strings.TrimSpace(e.Stderr))
}

func (e CommandError) Unwrap() error {
	return e.Err
}
