// Package workstation assembles the default workstation step registry.
package workstation

import (
	"github.com/BrianJOC/workstation-bootstrap/config"
	"github.com/BrianJOC/workstation-bootstrap/steps"
	"github.com/BrianJOC/workstation-bootstrap/steps/ansible"
	"github.com/BrianJOC/workstation-bootstrap/steps/cli"
	"github.com/BrianJOC/workstation-bootstrap/steps/docker"
	"github.com/BrianJOC/workstation-bootstrap/steps/editor"
	"github.com/BrianJOC/workstation-bootstrap/steps/fonts"
	"github.com/BrianJOC/workstation-bootstrap/steps/langs"
	"github.com/BrianJOC/workstation-bootstrap/steps/shell"
	"github.com/BrianJOC/workstation-bootstrap/steps/ssh"
	"github.com/BrianJOC/workstation-bootstrap/steps/wm"
)

// Bundle returns the workstation steps in execution order.
func Bundle(cfg *config.Config, ansibleOpts ...ansible.Option) []steps.Step {
	return []steps.Step{
		cli.New(cfg.CLI),
		ssh.New(cfg.SSH),
		shell.New(cfg.Shell),
		wm.New(cfg.WM),
		editor.New(cfg.Editor),
		langs.New(cfg.Langs),
		fonts.New(cfg.Fonts),
		docker.New(cfg.Docker),
		ansible.New(cfg.Ansible, ansibleOpts...),
	}
}

// Registry builds the registry for Bundle.
func Registry(cfg *config.Config, ansibleOpts ...ansible.Option) (*steps.Registry, error) {
	return steps.NewRegistry(Bundle(cfg, ansibleOpts...)...)
}
