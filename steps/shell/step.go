// Package shell installs zsh with oh-my-zsh and wires the user's rc file.
package shell

import (
	"context"

	"github.com/BrianJOC/workstation-bootstrap/config"
	"github.com/BrianJOC/workstation-bootstrap/steps"
	"github.com/BrianJOC/workstation-bootstrap/utils/gitfetch"
	"github.com/BrianJOC/workstation-bootstrap/utils/pkginstaller"
	"github.com/BrianJOC/workstation-bootstrap/utils/profile"
	"github.com/BrianJOC/workstation-bootstrap/utils/systemuser"
)

const (
	stepID = "shell"

	ActionPackages   = "packages"
	ActionOhMyZsh    = "oh-my-zsh"
	ActionProfile    = "profile"
	ActionLoginShell = "login-shell"
)

// Step configures the interactive shell.
type Step struct {
	cfg config.Shell
}

// New creates the shell step.
func New(cfg config.Shell) *Step {
	return &Step{cfg: cfg}
}

// Metadata implements steps.Step.
func (s *Step) Metadata() steps.Metadata {
	return steps.Metadata{
		ID:          stepID,
		Title:       "Shell",
		Description: "Install zsh and oh-my-zsh, then make zsh the login shell.",
		Privileged:  true,
		Actions: []steps.Action{
			steps.Required(ActionPackages, "install shell packages"),
			steps.Required(ActionOhMyZsh, "clone or update oh-my-zsh"),
			steps.Required(ActionProfile, "append rc file lines"),
			steps.Optional(ActionLoginShell, "change the login shell"),
		},
	}
}

// Satisfied implements steps.Step. A login shell change that failed in an
// earlier run is not waited for.
func (s *Step) Satisfied(ctx context.Context, env *steps.Env) (bool, error) {
	missing, err := pkginstaller.Missing(ctx, env.Runner, s.cfg.Packages)
	if err != nil || len(missing) > 0 {
		return false, err
	}
	if !gitfetch.IsCheckout(env.HomePath(s.cfg.OhMyZshDir)) {
		return false, nil
	}
	ok, err := profile.HasLines(env.HomePath(s.cfg.RCFile), s.cfg.ProfileLines)
	if err != nil || !ok {
		return false, err
	}
	if !s.cfg.ChangeLoginShell || env.Attempted(stepID, ActionLoginShell) {
		return true, nil
	}
	current, err := systemuser.LoginShell(ctx, env.Runner, env.Facts.User)
	if err != nil {
		return false, err
	}
	return current == s.cfg.LoginShell, nil
}

// Apply implements steps.Step.
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

	if err := env.Perform(meta, ActionOhMyZsh, func() error {
		_, err := gitfetch.Sync(ctx, env.Runner, s.cfg.OhMyZshRepo, env.HomePath(s.cfg.OhMyZshDir))
		return err
	}); err != nil {
		return err
	}

	if err := env.Perform(meta, ActionProfile, func() error {
		_, err := profile.EnsureLines(env.HomePath(s.cfg.RCFile), s.cfg.ProfileLines)
		return err
	}); err != nil {
		return err
	}

	if !s.cfg.ChangeLoginShell {
		return nil
	}
	return env.PerformItem(meta, ActionLoginShell, ActionLoginShell, func() error {
		current, err := systemuser.LoginShell(ctx, env.Runner, env.Facts.User)
		if err != nil {
			return err
		}
		if current == s.cfg.LoginShell {
			return nil
		}
		return systemuser.SetLoginShell(ctx, root, env.Facts.User, s.cfg.LoginShell)
	})
}
