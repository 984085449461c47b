// Package fetch downloads files over HTTPS with curl.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/BrianJOC/workstation-bootstrap/utils/command"
)

// ValidateURL accepts absolute https URLs only.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return URLError{URL: raw, Reason: err.Error()}
	}
	if u.Scheme != "https" {
		return URLError{URL: raw, Reason: "scheme must be https"}
	}
	if u.Host == "" {
		return URLError{URL: raw, Reason: "host is required"}
	}
	return nil
}

// Download fetches rawURL into dest, creating the destination directory.
// Redirects are followed and HTTP errors fail the download.
func Download(ctx context.Context, r command.Runner, rawURL, dest string) error {
	if r == nil {
		return RunnerError{}
	}
	if err := ValidateURL(rawURL); err != nil {
		return err
	}
	cmd := fmt.Sprintf("mkdir -p %s && curl -fsSL -o %s %s",
		command.Quote(filepath.Dir(dest)), command.Quote(dest), command.Quote(strings.TrimSpace(rawURL)))
	if _, stderr, err := r.Run(ctx, cmd); err != nil {
		return DownloadError{URL: rawURL, Err: err, Stderr: stderr}
	}
	return nil
}

// Extract unpacks a downloaded archive into dir. Tarballs are extracted with
// tar; zip files with unzip. stripComponents applies to tarballs only.
func Extract(ctx context.Context, r command.Runner, archive, dir string, stripComponents int) error {
	if r == nil {
		return RunnerError{}
	}
	var cmd string
	switch {
	case strings.HasSuffix(archive, ".zip"):
		cmd = fmt.Sprintf("mkdir -p %s && unzip -o -q %s -d %s", command.Quote(dir), command.Quote(archive), command.Quote(dir))
	default:
		cmd = fmt.Sprintf("mkdir -p %s && tar -xzf %s -C %s", command.Quote(dir), command.Quote(archive), command.Quote(dir))
		if stripComponents > 0 {
			cmd += fmt.Sprintf(" --strip-components=%d", stripComponents)
		}
	}
	if _, stderr, err := r.Run(ctx, cmd); err != nil {
		return DownloadError{URL: archive, Err: err, Stderr: stderr}
	}
	return nil
}
