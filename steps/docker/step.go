// Package docker installs Docker Engine from the upstream apt repository.
package docker

import (
	"context"
	"fmt"
	"strings"

	"github.com/juju/loggo"

	"github.com/BrianJOC/workstation-bootstrap/config"
	"github.com/BrianJOC/workstation-bootstrap/steps"
	"github.com/BrianJOC/workstation-bootstrap/utils/aptrepo"
	"github.com/BrianJOC/workstation-bootstrap/utils/command"
	"github.com/BrianJOC/workstation-bootstrap/utils/pkginstaller"
	"github.com/BrianJOC/workstation-bootstrap/utils/systemuser"
)

var logger = loggo.GetLogger("bootstrap.steps.docker")

const (
	stepID = "docker"

	ActionPrerequisites = "prerequisites"
	ActionRepository    = "repository"
	ActionEngine        = "engine"
	ActionGroup         = "group"
	ActionService       = "service"

	serviceName = "docker"
)

// Step installs and enables Docker Engine.
type Step struct {
	cfg config.Docker
}

// New creates the docker step.
func New(cfg config.Docker) *Step {
	return &Step{cfg: cfg}
}

// Metadata implements steps.Step.
func (s *Step) Metadata() steps.Metadata {
	return steps.Metadata{
		ID:          stepID,
		Title:       "Docker",
		Description: "Add the Docker apt repository and install the engine.",
		Privileged:  true,
		Actions: []steps.Action{
			steps.Required(ActionPrerequisites, "install repository prerequisites"),
			steps.Required(ActionRepository, "add the signing key and source list"),
			steps.Required(ActionEngine, "install engine packages"),
			steps.Optional(ActionGroup, "add the user to the docker group"),
			steps.Optional(ActionService, "enable the docker service"),
		},
	}
}

// Source returns the apt repository for the host distribution.
func (s *Step) Source(facts steps.Facts) aptrepo.Source {
	vars := map[string]string{"distro": facts.DistroID}
	return aptrepo.Source{
		Name:       "docker",
		URL:        config.Expand(s.cfg.RepoURL, vars),
		KeyURL:     config.Expand(s.cfg.KeyURL, vars),
		Suite:      facts.Codename,
		Components: s.cfg.Components,
		Arch:       facts.Arch,
	}
}

// Satisfied checks packages, the apt source, group membership and the service.
func (s *Step) Satisfied(ctx context.Context, env *steps.Env) (bool, error) {
	names := append(append([]string{}, s.cfg.Prerequisites...), s.cfg.Packages...)
	missing, err := pkginstaller.Missing(ctx, env.Runner, names)
	if err != nil || len(missing) > 0 {
		return false, err
	}
	ok, err := aptrepo.Configured(ctx, env.Runner, s.Source(env.Facts))
	if err != nil || !ok {
		return false, err
	}
	if s.cfg.AddUserToGroup {
		ok, err := systemuser.InGroup(ctx, env.Runner, env.Facts.User, s.cfg.Group)
		if err != nil || !ok {
			return false, err
		}
	}
	if s.cfg.EnableService {
		return serviceEnabled(ctx, env.Runner), nil
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
	src := s.Source(env.Facts)

	if err := env.Perform(meta, ActionPrerequisites, func() error {
		_, err := env.InstallPackages(ctx, root, s.cfg.Prerequisites)
		return err
	}); err != nil {
		return err
	}

	if err := env.Perform(meta, ActionRepository, func() error {
		ok, err := aptrepo.Configured(ctx, root, src)
		if err != nil || ok {
			return err
		}
		if err := aptrepo.AddKey(ctx, root, src); err != nil {
			return err
		}
		return aptrepo.WriteList(ctx, root, src)
	}); err != nil {
		return err
	}

	if err := env.Perform(meta, ActionEngine, func() error {
		_, err := pkginstaller.Ensure(ctx, root, s.cfg.Packages, pkginstaller.WithRefresh(func() error {
			// A full refresh that has not happened yet picks up the new
			// source too; otherwise only the docker list needs fetching.
			if !env.AptIndex.Done() {
				return env.RefreshAptIndex(ctx, root)
			}
			return aptrepo.Refresh(ctx, root, src)
		}))
		return err
	}); err != nil {
		return err
	}

	if s.cfg.AddUserToGroup {
		if err := env.Perform(meta, ActionGroup, func() error {
			ok, err := systemuser.InGroup(ctx, env.Runner, env.Facts.User, s.cfg.Group)
			if err != nil || ok {
				return err
			}
			if err := systemuser.AddToGroup(ctx, root, env.Facts.User, s.cfg.Group); err != nil {
				return err
			}
			logger.Infof("added %s to group %s; log out and back in for it to apply", env.Facts.User, s.cfg.Group)
			return nil
		}); err != nil {
			return err
		}
	}

	if !s.cfg.EnableService {
		return nil
	}
	return env.Perform(meta, ActionService, func() error {
		if _, stderr, err := root.Run(ctx, "systemctl enable --now "+command.Quote(serviceName)); err != nil {
			return fmt.Errorf("enable %s: %w: %s", serviceName, err, strings.TrimSpace(stderr))
		}
		return nil
	})
}

func serviceEnabled(ctx context.Context, r command.Runner) bool {
	_, _, err := r.Run(ctx, "systemctl is-enabled --quiet "+command.Quote(serviceName))
	return err == nil
}
