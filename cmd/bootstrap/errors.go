package main

import "fmt"

// ExitError carries the process status for a failed invocation.
type ExitError struct {
	Code int
	Err  error
	// Usage requests the command usage after the error message.
	Usage bool
}

func (e ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e ExitError) Unwrap() error {
	return e.Err
}

// LogLevelError reports an unparseable --log-level value.
type LogLevelError struct {
	Value string
}

func (e LogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q", e.Value)
}
