// Package langs installs language toolchains: Go, Rust via rustup, and
// Python tooling from the distribution archive.
package langs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/BrianJOC/workstation-bootstrap/config"
	"github.com/BrianJOC/workstation-bootstrap/steps"
	"github.com/BrianJOC/workstation-bootstrap/utils/command"
	"github.com/BrianJOC/workstation-bootstrap/utils/fetch"
	"github.com/BrianJOC/workstation-bootstrap/utils/pkginstaller"
	"github.com/BrianJOC/workstation-bootstrap/utils/profile"
)

const (
	stepID = "langs"

	ActionGo      = "go"
	ActionRust    = "rust"
	ActionPython  = "python"
	ActionProfile = "profile"
)

// Step installs language toolchains.
type Step struct {
	cfg config.Langs
}

// New creates the langs step.
func New(cfg config.Langs) *Step {
	return &Step{cfg: cfg}
}

// Metadata implements steps.Step.
func (s *Step) Metadata() steps.Metadata {
	return steps.Metadata{
		ID:          stepID,
		Title:       "Languages",
		Description: fmt.Sprintf("Install Go %s, rustup and Python tooling.", s.cfg.Go.Version),
		Privileged:  true,
		Actions: []steps.Action{
			steps.Required(ActionGo, "install the Go toolchain"),
			steps.Required(ActionRust, "install rustup"),
			steps.Optional(ActionPython, "install Python tooling"),
			steps.Required(ActionProfile, "add toolchains to PATH"),
		},
	}
}

// Satisfied compares the installed Go version with the pinned one and checks
// rustup, the Python packages and the PATH lines.
func (s *Step) Satisfied(ctx context.Context, env *steps.Env) (bool, error) {
	if !s.goInstalled(ctx, env.Runner) {
		return false, nil
	}
	if s.cfg.Rust.Enabled && !rustupInstalled(env) {
		return false, nil
	}
	if !env.Attempted(stepID, ActionPython) {
		missing, err := pkginstaller.Missing(ctx, env.Runner, s.cfg.Python.Packages)
		if err != nil || len(missing) > 0 {
			return false, err
		}
	}
	return profile.HasLines(env.ProfilePath(), s.cfg.ProfileLines)
}

// Apply implements steps.Step.
func (s *Step) Apply(ctx context.Context, env *steps.Env) error {
	meta := s.Metadata()
	root, err := env.Privileged(meta)
	if err != nil {
		return err
	}

	if !s.goInstalled(ctx, env.Runner) {
		if err := env.Perform(meta, ActionGo, func() error {
			return s.installGo(ctx, env, root)
		}); err != nil {
			return err
		}
	}

	if s.cfg.Rust.Enabled && !rustupInstalled(env) {
		if err := env.Perform(meta, ActionRust, func() error {
			return s.installRustup(ctx, env)
		}); err != nil {
			return err
		}
	}

	if len(s.cfg.Python.Packages) > 0 {
		if err := env.PerformItem(meta, ActionPython, ActionPython, func() error {
			_, err := env.InstallPackages(ctx, root, s.cfg.Python.Packages)
			return err
		}); err != nil {
			return err
		}
	}

	return env.Perform(meta, ActionProfile, func() error {
		_, err := profile.EnsureLines(env.ProfilePath(), s.cfg.ProfileLines)
		return err
	})
}

func (s *Step) installGo(ctx context.Context, env *steps.Env, root command.Runner) error {
	url := config.Expand(s.cfg.Go.URL, map[string]string{
		"version": s.cfg.Go.Version,
		"arch":    env.Facts.Arch,
	})
	archive := filepath.Join(env.DownloadDir(), fmt.Sprintf("go%s.linux-%s.tar.gz", s.cfg.Go.Version, env.Facts.Arch))
	if err := fetch.Download(ctx, env.Runner, url, archive); err != nil {
		return err
	}
	if _, stderr, err := root.Run(ctx, "rm -rf "+command.Quote(s.cfg.Go.InstallDir)); err != nil {
		return fmt.Errorf("remove previous go install: %w: %s", err, strings.TrimSpace(stderr))
	}
	return fetch.Extract(ctx, root, archive, s.cfg.Go.InstallDir, 1)
}

func (s *Step) installRustup(ctx context.Context, env *steps.Env) error {
	script := filepath.Join(env.DownloadDir(), "rustup-init.sh")
	if err := fetch.Download(ctx, env.Runner, s.cfg.Rust.InstallerURL, script); err != nil {
		return err
	}
	cmd := fmt.Sprintf("sh %s -y --no-modify-path", command.Quote(script))
	if _, stderr, err := env.Runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("rustup-init: %w: %s", err, strings.TrimSpace(stderr))
	}
	return nil
}

func (s *Step) goInstalled(ctx context.Context, r command.Runner) bool {
	bin := filepath.Join(s.cfg.Go.InstallDir, "bin", "go")
	stdout, _, err := r.Run(ctx, command.Quote(bin)+" version")
	if err != nil {
		return false
	}
	got := parseGoVersion(stdout)
	return got != "" && semver.Compare(got, "v"+s.cfg.Go.Version) == 0
}

func rustupInstalled(env *steps.Env) bool {
	_, err := os.Stat(env.HomePath(filepath.Join(".cargo", "bin", "rustup")))
	return err == nil
}

// parseGoVersion turns "go version go1.23.4 linux/amd64" into "v1.23.4".
func parseGoVersion(out string) string {
	for _, field := range strings.Fields(out) {
		rest, ok := strings.CutPrefix(field, "go")
		if !ok || rest == "" {
			continue
		}
		if v := "v" + rest; semver.IsValid(v) {
			return semver.Canonical(v)
		}
	}
	return ""
}
