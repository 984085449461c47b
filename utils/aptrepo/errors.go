package aptrepo

import (
	"fmt"
	"strings"
)

// RunnerError indicates an operation was invoked without a runner.
type RunnerError struct{}

func (RunnerError) Error() string {
	return "runner is required"
}

// SourceError captures an incomplete repository definition.
type SourceError struct {
	Field string
}

func (e SourceError) Error() string {
	return fmt.Sprintf("apt source: %s is required", e.Field)
}

// CommandError wraps failures while configuring a repository.
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
