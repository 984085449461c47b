// Package ssh ensures the invoking user has an SSH key pair.
package ssh

import (
	"context"
	"fmt"

	"github.com/juju/loggo"

	"github.com/BrianJOC/workstation-bootstrap/config"
	"github.com/BrianJOC/workstation-bootstrap/steps"
	"github.com/BrianJOC/workstation-bootstrap/utils/sshkeypair"
)

const (
	stepID = "ssh"

	ActionKeyPair = "keypair"
)

var logger = loggo.GetLogger("bootstrap.steps.ssh")

// Step generates ~/.ssh/id_<type> when it is absent.
type Step struct {
	cfg config.SSH
}

// New creates the ssh step.
func New(cfg config.SSH) *Step {
	return &Step{cfg: cfg}
}

// Metadata implements steps.Step.
func (s *Step) Metadata() steps.Metadata {
	return steps.Metadata{
		ID:          stepID,
		Title:       "SSH Key",
		Description: "Generate an SSH key pair for the current user.",
		Actions: []steps.Action{
			steps.Required(ActionKeyPair, "generate the key pair or restore its public half"),
		},
	}
}

// Satisfied reports whether both halves of the key pair exist.
func (s *Step) Satisfied(_ context.Context, env *steps.Env) (bool, error) {
	path, err := s.privatePath(env)
	if err != nil {
		return false, err
	}
	for _, p := range []string{path, path + ".pub"} {
		ok, err := sshkeypair.Exists(p)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Apply generates the key pair once, or re-derives a missing public key.
func (s *Step) Apply(_ context.Context, env *steps.Env) error {
	meta := s.Metadata()
	path, err := s.privatePath(env)
	if err != nil {
		return err
	}

	opts := []sshkeypair.Option{sshkeypair.WithKeyType(sshkeypair.KeyType(s.cfg.KeyType))}
	if s.cfg.KeyType == string(sshkeypair.KeyTypeRSA) && s.cfg.Bits > 0 {
		opts = append(opts, sshkeypair.WithKeyBits(s.cfg.Bits))
	}
	opts = append(opts, sshkeypair.WithComment(s.comment(env)))

	return env.Perform(meta, ActionKeyPair, func() error {
		info, err := sshkeypair.EnsureKeyPair(path, opts...)
		if err != nil {
			return err
		}
		if info.KeyGenerated {
			logger.Infof("generated %s", info.PrivatePath)
		} else if info.PublicCreated {
			logger.Infof("restored %s", info.PublicPath)
		}
		return nil
	})
}

func (s *Step) privatePath(env *steps.Env) (string, error) {
	keyType, err := sshkeypair.ParseKeyType(s.cfg.KeyType)
	if err != nil {
		return "", err
	}
	return sshkeypair.DefaultPath(env.Facts.Home, keyType), nil
}

func (s *Step) comment(env *steps.Env) string {
	if s.cfg.Comment != "" {
		return s.cfg.Comment
	}
	if env.Facts.User == "" {
		return "workstation-bootstrap"
	}
	return fmt.Sprintf("%s@workstation", env.Facts.User)
}
