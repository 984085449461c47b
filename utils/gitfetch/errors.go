package gitfetch

import (
	"fmt"
	"strings"
)

// RunnerError indicates Sync was invoked without a runner.
type RunnerError struct{}

func (RunnerError) Error() string {
	return "runner is required"
}

// ValidationError captures invalid repository inputs.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("git fetch validation failed: %s", e.Reason)
}

// CommandError wraps git failures.
type CommandError struct {
	Step   string
	Err    error
	Stderr string
}

func (e CommandError) Error() string {
	return fmt.Sprintf("git %s failed: %v (%s)", e.Step, e.Err, strings.TrimSpace(e.Stderr))
}

func (e CommandError) Unwrap() error {
	return e.Err
}
