package systemuser

import (
	"fmt"
	"strings"
)

// RunnerError indicates an operation was invoked without a valid runner.
type RunnerError struct{}

func (RunnerError) Error() string {
	return "runner is required"
}

// ValidationError captures bad user, group, or shell names.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("user validation failed: %s", e.Reason)
}

// CommandError wraps failures of account management commands.
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
