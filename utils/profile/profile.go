// Package profile appends single-line entries to shell profile files exactly once.
package profile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// HasLine reports whether path contains line as a whole line. Surrounding
// whitespace is ignored on both sides. A missing file contains nothing.
func HasLine(path, line string) (bool, error) {
	want, err := normalize(line)
	if err != nil {
		return false, err
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, FileError{Path: path, Op: "read", Err: err}
	}
	for _, existing := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(existing) == want {
			return true, nil
		}
	}
	return false, nil
}

// HasLines reports whether every line is already present in path.
func HasLines(path string, lines []string) (bool, error) {
	for _, line := range lines {
		ok, err := HasLine(path, line)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// EnsureLine appends line to path unless it is already present, creating the
// file and its parent directory when needed. It reports whether it wrote.
func EnsureLine(path, line string) (bool, error) {
	ok, err := HasLine(path, line)
	if err != nil || ok {
		return false, err
	}
	want, _ := normalize(line)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, FileError{Path: path, Op: "mkdir", Err: err}
	}
	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, FileError{Path: path, Op: "read", Err: err}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, FileError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	entry := want + "\n"
	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		entry = "\n" + entry
	}
	if _, err := f.WriteString(entry); err != nil {
		return false, FileError{Path: path, Op: "write", Err: err}
	}
	return true, nil
}

// EnsureLines appends each missing line in order and returns how many were written.
func EnsureLines(path string, lines []string) (int, error) {
	added := 0
	for _, line := range lines {
		wrote, err := EnsureLine(path, line)
		if err != nil {
			return added, err
		}
		if wrote {
			added++
		}
	}
	return added, nil
}

func normalize(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", LineError{Reason: "line must not be empty"}
	}
	if strings.ContainsAny(line, "\r\n") {
		return "", LineError{Reason: "line must not contain newlines"}
	}
	return line, nil
}
