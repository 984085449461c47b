package profile

import "fmt"

// LineError rejects lines that cannot be appended as a single entry.
type LineError struct {
	Reason string
}

func (e LineError) Error() string {
	return fmt.Sprintf("profile line error: %s", e.Reason)
}

// FileError wraps filesystem failures on the profile file.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}
