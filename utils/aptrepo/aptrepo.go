// Package aptrepo registers third-party apt repositories signed by a
// dedicated keyring.
package aptrepo

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BrianJOC/workstation-bootstrap/utils/command"
	"github.com/BrianJOC/workstation-bootstrap/utils/fetch"
)

const (
	// KeyringDir holds downloaded repository signing keys.
	KeyringDir = "/etc/apt/keyrings"
	// SourcesDir holds one .list file per repository.
	SourcesDir = "/etc/apt/sources.list.d"
)

// Source describes one signed apt repository.
type Source struct {
	// Name is used for the keyring and list file names.
	Name       string
	URL        string
	KeyURL     string
	Suite      string
	Components []string
	Arch       string
}

// KeyringPath returns where the signing key is stored.
func (s Source) KeyringPath() string {
	return filepath.Join(KeyringDir, s.Name+".asc")
}

// ListPath returns the sources.list.d file for the repository.
func (s Source) ListPath() string {
	return filepath.Join(SourcesDir, s.Name+".list")
}

// Line renders the one-line source entry.
func (s Source) Line() string {
	return fmt.Sprintf("deb [arch=%s signed-by=%s] %s %s %s",
		s.Arch, s.KeyringPath(), s.URL, s.Suite, strings.Join(s.Components, " "))
}

// Validate reports the first missing field.
func (s Source) Validate() error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return SourceError{Field: "name"}
	case strings.TrimSpace(s.URL) == "":
		return SourceError{Field: "url"}
	case strings.TrimSpace(s.KeyURL) == "":
		return SourceError{Field: "key url"}
	case strings.TrimSpace(s.Suite) == "":
		return SourceError{Field: "suite"}
	case len(s.Components) == 0:
		return SourceError{Field: "components"}
	case strings.TrimSpace(s.Arch) == "":
		return SourceError{Field: "arch"}
	}
	return nil
}

// Configured reports whether the keyring exists and the list file holds
// exactly the expected source line.
func Configured(ctx context.Context, r command.Runner, src Source) (bool, error) {
	if r == nil {
		return false, RunnerError{}
	}
	if err := src.Validate(); err != nil {
		return false, err
	}
	cmd := fmt.Sprintf("test -s %s && grep -qxF %s %s",
		command.Quote(src.KeyringPath()), command.Quote(src.Line()), command.Quote(src.ListPath()))
	_, _, err := r.Run(ctx, cmd)
	return err == nil, nil
}

// AddKey downloads the signing key into the keyring directory.
func AddKey(ctx context.Context, root command.Runner, src Source) error {
	if root == nil {
		return RunnerError{}
	}
	if err := src.Validate(); err != nil {
		return err
	}
	if err := fetch.Download(ctx, root, src.KeyURL, src.KeyringPath()); err != nil {
		return err
	}
	cmd := fmt.Sprintf("chmod a+r %s", command.Quote(src.KeyringPath()))
	if _, stderr, err := root.Run(ctx, cmd); err != nil {
		return CommandError{Step: "chmod keyring", Err: err, Stderr: stderr}
	}
	return nil
}

// WriteList replaces the repository list file with the source line.
func WriteList(ctx context.Context, root command.Runner, src Source) error {
	if root == nil {
		return RunnerError{}
	}
	if err := src.Validate(); err != nil {
		return err
	}
	cmd := fmt.Sprintf("printf '%%s\\n' %s > %s", command.Quote(src.Line()), command.Quote(src.ListPath()))
	if _, stderr, err := root.Run(ctx, cmd); err != nil {
		return CommandError{Step: "write source list", Err: err, Stderr: stderr}
	}
	return nil
}

// Refresh updates the package index for this repository only, leaving the
// rest of the cached index untouched.
func Refresh(ctx context.Context, root command.Runner, src Source) error {
	if root == nil {
		return RunnerError{}
	}
	cmd := fmt.Sprintf("DEBIAN_FRONTEND=noninteractive apt-get update -y -o Dir::Etc::sourcelist=%s -o Dir::Etc::sourceparts=- -o APT::Get::List-Cleanup=0",
		command.Quote("sources.list.d/"+src.Name+".list"))
	if _, stderr, err := root.Run(ctx, cmd); err != nil {
		return CommandError{Step: "apt-get update " + src.Name, Err: err, Stderr: stderr}
	}
	return nil
}
