// Package cli installs command-line tool packages.
package cli

import (
	"context"

	"github.com/BrianJOC/workstation-bootstrap/config"
	"github.com/BrianJOC/workstation-bootstrap/steps"
	"github.com/BrianJOC/workstation-bootstrap/utils/pkginstaller"
)

const (
	stepID = "cli"

	ActionPackages = "packages"
	ActionOptional = "optional-packages"
)

// Step installs the required and optional CLI packages.
type Step struct {
	cfg config.CLI
}

// New creates the cli step.
func New(cfg config.CLI) *Step {
	return &Step{cfg: cfg}
}

// Metadata implements steps.Step.
func (s *Step) Metadata() steps.Metadata {
	return steps.Metadata{
		ID:          stepID,
		Title:       "CLI Tools",
		Description: "Install command-line tools from the distribution archive.",
		Privileged:  true,
		Actions: []steps.Action{
			steps.Required(ActionPackages, "install required packages"),
			steps.Optional(ActionOptional, "install each optional package"),
		},
	}
}

// Satisfied reports whether every required package is installed and every
// optional one is either installed or failed in an earlier run.
func (s *Step) Satisfied(ctx context.Context, env *steps.Env) (bool, error) {
	missing, err := pkginstaller.Missing(ctx, env.Runner, s.wanted(env))
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

// Apply installs the required packages, then each optional package on its own.
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

	// One call per optional package so a single unavailable package does not
	// block the rest.
	for _, name := range s.cfg.Optional {
		if err := env.PerformItem(meta, ActionOptional, name, func() error {
			_, err := env.InstallPackages(ctx, root, []string{name})
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Step) wanted(env *steps.Env) []string {
	out := make([]string, 0, len(s.cfg.Packages)+len(s.cfg.Optional))
	out = append(out, s.cfg.Packages...)
	for _, name := range s.cfg.Optional {
		if !env.Attempted(stepID, name) {
			out = append(out, name)
		}
	}
	return out
}
