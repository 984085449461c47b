package fetch

import (
	"fmt"
	"strings"
)

// RunnerError indicates Download was invoked without a runner.
type RunnerError struct{}

func (RunnerError) Error() string {
	return "runner is required"
}

// URLError rejects URLs that are not plain https.
type URLError struct {
	URL    string
	Reason string
}

func (e URLError) Error() string {
	return fmt.Sprintf("invalid download url %q: %s", e.URL, e.Reason)
}

// DownloadError wraps curl failures.
type DownloadError struct {
	URL    string
	Err    error
	Stderr string
}

func (e DownloadError) Error() string {
	return fmt.Sprintf("download %s failed: %v (%s)", e.URL, e.Err, strings.TrimSpace(e.Stderr))
}

func (e DownloadError) Unwrap() error {
	return e.Err
}
