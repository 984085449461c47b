package privilege

import (
	"fmt"
	"strings"
)

// NilRunnerError indicates Acquire received no base runner.
type NilRunnerError struct{}

func (NilRunnerError) Error() string {
	return "command runner is required"
}

// PasswordRequiredError indicates sudo needs a password and none was supplied.
type PasswordRequiredError struct{}

func (PasswordRequiredError) Error() string {
	return "sudo password required"
}

// SudoPermissionError indicates the current user is not allowed to use sudo.
type SudoPermissionError struct {
	Stderr string
}

func (e SudoPermissionError) Error() string {
	return fmt.Sprintf("sudo permission denied: %s", strings.TrimSpace(e.Stderr))
}

// SudoNotInstalledError indicates the sudo binary is missing.
type SudoNotInstalledError struct {
	Stderr string
}

func (e SudoNotInstalledError) Error() string {
	return fmt.Sprintf("sudo not installed: %s", strings.TrimSpace(e.Stderr))
}

// SudoAuthenticationError wraps incorrect sudo password attempts.
type SudoAuthenticationError struct {
	Err error
}

func (e SudoAuthenticationError) Error() string {
	return fmt.Sprintf("sudo authentication failed: %v", e.Err)
}

func (e SudoAuthenticationError) Unwrap() error {
	return e.Err
}

// SudoUnknownError surfaces unclassified sudo failures.
type SudoUnknownError struct {
	Err    error
	Stderr string
}

func (e SudoUnknownError) Error() string {
	return fmt.Sprintf("sudo failed: %v (%s)", e.Err, strings.TrimSpace(e.Stderr))
}

func (e SudoUnknownError) Unwrap() error {
	return e.Err
}
