// Package editor installs a pinned Neovim release.
package editor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/BrianJOC/workstation-bootstrap/config"
	"github.com/BrianJOC/workstation-bootstrap/steps"
	"github.com/BrianJOC/workstation-bootstrap/utils/command"
	"github.com/BrianJOC/workstation-bootstrap/utils/fetch"
	"github.com/BrianJOC/workstation-bootstrap/utils/gitfetch"
	"github.com/BrianJOC/workstation-bootstrap/utils/profile"
)

const (
	stepID = "editor"

	ActionDownload = "download"
	ActionInstall  = "install"
	ActionProfile  = "profile"
	ActionConfig   = "config"
)

// Step installs Neovim from the upstream release tarball.
type Step struct {
	cfg config.Editor
}

// New creates the editor step.
func New(cfg config.Editor) *Step {
	return &Step{cfg: cfg}
}

// Metadata implements steps.Step.
func (s *Step) Metadata() steps.Metadata {
	return steps.Metadata{
		ID:          stepID,
		Title:       "Editor",
		Description: fmt.Sprintf("Install Neovim %s under %s.", s.cfg.Version, s.cfg.InstallDir),
		Privileged:  true,
		Actions: []steps.Action{
			steps.Required(ActionDownload, "download the release tarball"),
			steps.Required(ActionInstall, "unpack the release"),
			steps.Required(ActionProfile, "add nvim to PATH"),
			steps.Optional(ActionConfig, "clone or update the editor config"),
		},
	}
}

// Satisfied implements steps.Step.
func (s *Step) Satisfied(ctx context.Context, env *steps.Env) (bool, error) {
	if !s.installed(ctx, env.Runner) {
		return false, nil
	}
	ok, err := profile.HasLines(env.ProfilePath(), s.cfg.ProfileLines)
	if err != nil || !ok {
		return false, err
	}
	if s.cfg.ConfigRepo != "" && !gitfetch.IsCheckout(env.HomePath(s.cfg.ConfigDir)) {
		return false, nil
	}
	return true, nil
}

// Apply implements steps.Step.
func (s *Step) Apply(ctx context.Context, env *steps.Env) error {
	meta := s.Metadata()
	root, err := env.Privileged(meta)
	if err != nil {
		return err
	}

	if !s.installed(ctx, env.Runner) {
		archive := filepath.Join(env.DownloadDir(), fmt.Sprintf("nvim-%s.tar.gz", s.cfg.Version))
		if err := env.Perform(meta, ActionDownload, func() error {
			url, err := s.releaseURL(env.Facts.Arch)
			if err != nil {
				return err
			}
			return fetch.Download(ctx, env.Runner, url, archive)
		}); err != nil {
			return err
		}
		if err := env.Perform(meta, ActionInstall, func() error {
			if _, stderr, err := root.Run(ctx, "rm -rf "+command.Quote(s.cfg.InstallDir)); err != nil {
				return fmt.Errorf("remove previous install: %w: %s", err, strings.TrimSpace(stderr))
			}
			return fetch.Extract(ctx, root, archive, s.cfg.InstallDir, 1)
		}); err != nil {
			return err
		}
	}

	if err := env.Perform(meta, ActionProfile, func() error {
		_, err := profile.EnsureLines(env.ProfilePath(), s.cfg.ProfileLines)
		return err
	}); err != nil {
		return err
	}

	if s.cfg.ConfigRepo == "" {
		return nil
	}
	return env.Perform(meta, ActionConfig, func() error {
		_, err := gitfetch.Sync(ctx, env.Runner, s.cfg.ConfigRepo, env.HomePath(s.cfg.ConfigDir), gitfetch.WithBranch(s.cfg.ConfigBranch))
		return err
	})
}

// installed reports whether the binary under InstallDir reports the pinned version.
func (s *Step) installed(ctx context.Context, r command.Runner) bool {
	bin := filepath.Join(s.cfg.InstallDir, "bin", "nvim")
	stdout, _, err := r.Run(ctx, command.Quote(bin)+" --version")
	if err != nil {
		return false
	}
	got := parseVersion(stdout)
	return got != "" && semver.Compare(got, "v"+s.cfg.Version) == 0
}

func (s *Step) releaseURL(arch string) (string, error) {
	unameArch, err := unameArch(arch)
	if err != nil {
		return "", err
	}
	return config.Expand(s.cfg.URL, map[string]string{
		"version":    s.cfg.Version,
		"arch":       arch,
		"uname_arch": unameArch,
	}), nil
}

// parseVersion extracts "v0.10.4" from the first line of `nvim --version`.
func parseVersion(out string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	for _, field := range strings.Fields(line) {
		if semver.IsValid(field) {
			return semver.Canonical(field)
		}
	}
	return ""
}

func unameArch(arch string) (string, error) {
	switch arch {
	case "amd64":
		return "x86_64", nil
	case "arm64":
		return "arm64", nil
	default:
		return "", fmt.Errorf("no neovim release for architecture %q", arch)
	}
}
