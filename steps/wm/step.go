// Package wm installs the i3 window manager and seeds a user config.
package wm

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BrianJOC/workstation-bootstrap/config"
	"github.com/BrianJOC/workstation-bootstrap/steps"
	"github.com/BrianJOC/workstation-bootstrap/utils/pkginstaller"
)

const (
	stepID = "wm"

	ActionPackages      = "packages"
	ActionOptional      = "optional-packages"
	ActionDefaultConfig = "default-config"
)

// Step installs the window manager.
type Step struct {
	cfg config.WM
}

// New creates the wm step.
func New(cfg config.WM) *Step {
	return &Step{cfg: cfg}
}

// Metadata implements steps.Step.
func (s *Step) Metadata() steps.Metadata {
	return steps.Metadata{
		ID:          stepID,
		Title:       "Window Manager",
		Description: "Install i3 and copy its default config into the user's home.",
		Privileged:  true,
		Actions: []steps.Action{
			steps.Required(ActionPackages, "install window manager packages"),
			steps.Optional(ActionOptional, "install each optional package"),
			steps.Optional(ActionDefaultConfig, "seed the user config"),
		},
	}
}

// Satisfied ignores optional items that already failed in an earlier run.
func (s *Step) Satisfied(ctx context.Context, env *steps.Env) (bool, error) {
	names := append([]string{}, s.cfg.Packages...)
	for _, name := range s.cfg.Optional {
		if !env.Attempted(stepID, name) {
			names = append(names, name)
		}
	}
	missing, err := pkginstaller.Missing(ctx, env.Runner, names)
	if err != nil || len(missing) > 0 {
		return false, err
	}
	if env.Attempted(stepID, ActionDefaultConfig) {
		return true, nil
	}
	_, err = os.Stat(env.HomePath(s.cfg.ConfigPath))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

// Apply installs the packages and seeds the config when the user has none.
func (s *Step) Apply(ctx context.Context, env *steps.Env) error {
	meta := s.Metadata()
	root, err := env.Privileged(meta)
	if err != nil {
		return err
	}

	if err := env.Perform(meta, ActionPackages, func() error {
		_, err := env.InstallPackages(ctx, root, s.cfg.Packages)
		return err
	}); err != nil {
		return err
	}
	for _, name := range s.cfg.Optional {
		if err := env.PerformItem(meta, ActionOptional, name, func() error {
			_, err := env.InstallPackages(ctx, root, []string{name})
			return err
		}); err != nil {
			return err
		}
	}

	return env.PerformItem(meta, ActionDefaultConfig, ActionDefaultConfig, func() error {
		return seedConfig(s.cfg.DefaultConfig, env.HomePath(s.cfg.ConfigPath))
	})
}

// seedConfig copies src to dest unless dest already exists. An existing user
// config is never overwritten.
func seedConfig(src, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open default config: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy default config: %w", err)
	}
	return out.Close()
}
