// Package ansible installs Ansible and applies local playbooks.
package ansible

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/loggo"

	"github.com/BrianJOC/workstation-bootstrap/config"
	"github.com/BrianJOC/workstation-bootstrap/steps"
	"github.com/BrianJOC/workstation-bootstrap/utils/ansibleplaybook"
	"github.com/BrianJOC/workstation-bootstrap/utils/pkginstaller"
)

var logger = loggo.GetLogger("bootstrap.steps.ansible")

const (
	stepID = "ansible"

	ActionPackages  = "packages"
	ActionPlaybooks = "playbooks"
)

// PlaybookRunner executes one playbook against the local host.
type PlaybookRunner func(ctx context.Context, req ansibleplaybook.RunRequest) error

// Option configures the step.
type Option func(*Step)

// WithRunner replaces the go-ansible runner.
func WithRunner(fn PlaybookRunner) Option {
	return func(s *Step) {
		if fn != nil {
			s.run = fn
		}
	}
}

// WithOutput sends ansible-playbook output to w instead of discarding it.
func WithOutput(w io.Writer) Option {
	return func(s *Step) {
		if w != nil {
			s.output = w
		}
	}
}

// Step installs ansible and runs each configured playbook once per content change.
type Step struct {
	cfg    config.Ansible
	run    PlaybookRunner
	output io.Writer
}

// New creates the ansible step.
func New(cfg config.Ansible, opts ...Option) *Step {
	s := &Step{cfg: cfg, output: io.Discard}
	s.run = s.runPlaybook
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Metadata implements steps.Step.
func (s *Step) Metadata() steps.Metadata {
	return steps.Metadata{
		ID:          stepID,
		Title:       "Ansible",
		Description: "Install ansible and apply local playbooks.",
		Privileged:  true,
		Actions: []steps.Action{
			steps.Required(ActionPackages, "install ansible"),
			steps.Required(ActionPlaybooks, "run local playbooks"),
		},
	}
}

// Satisfied reports whether ansible is installed and every playbook's stamp
// matches its current content.
func (s *Step) Satisfied(ctx context.Context, env *steps.Env) (bool, error) {
	missing, err := pkginstaller.Missing(ctx, env.Runner, s.cfg.Packages)
	if err != nil || len(missing) > 0 {
		return false, err
	}
	for _, pb := range s.cfg.Playbooks {
		ok, err := s.applied(env, pb)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Apply installs ansible and runs each playbook whose content changed.
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

	for _, pb := range s.cfg.Playbooks {
		if err := env.Perform(meta, ActionPlaybooks, func() error {
			return s.apply(ctx, env, pb)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Step) apply(ctx context.Context, env *steps.Env, playbook string) error {
	ok, err := s.applied(env, playbook)
	if err != nil {
		return err
	}
	if ok {
		logger.Debugf("%s unchanged since last run", playbook)
		return nil
	}

	path := s.resolve(env, playbook)
	sum, err := digest(path)
	if err != nil {
		return err
	}
	req := ansibleplaybook.RunRequest{
		PlaybookPath: path,
		Become:       s.cfg.Become,
		ExtraVars:    s.extraVars(),
	}
	logger.Infof("running playbook %s", path)
	if err := s.run(ctx, req); err != nil {
		return fmt.Errorf("%s: %w", playbook, err)
	}

	stamp := stampPath(env, path)
	if err := os.MkdirAll(filepath.Dir(stamp), 0o755); err != nil {
		return fmt.Errorf("create stamp dir: %w", err)
	}
	return os.WriteFile(stamp, []byte(sum+"\n"), 0o644)
}

// applied reports whether the stamp for playbook matches its current content.
func (s *Step) applied(env *steps.Env, playbook string) (bool, error) {
	path := s.resolve(env, playbook)
	sum, err := digest(path)
	if err != nil {
		return false, err
	}
	stamp, err := os.ReadFile(stampPath(env, path))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(stamp)) == sum, nil
}

func (s *Step) resolve(env *steps.Env, playbook string) string {
	if rest, ok := strings.CutPrefix(playbook, "~/"); ok {
		return env.HomePath(rest)
	}
	if filepath.IsAbs(playbook) {
		return playbook
	}
	return env.HomePath(playbook)
}

func (s *Step) extraVars() map[string]interface{} {
	if len(s.cfg.ExtraVars) == 0 {
		return nil
	}
	vars := make(map[string]interface{}, len(s.cfg.ExtraVars))
	for k, v := range s.cfg.ExtraVars {
		vars[k] = v
	}
	return vars
}

func (s *Step) runPlaybook(ctx context.Context, req ansibleplaybook.RunRequest) error {
	return ansibleplaybook.Run(ctx, req,
		ansibleplaybook.WithStdout(s.output),
		ansibleplaybook.WithStderr(s.output),
		ansibleplaybook.WithEnvVar("ANSIBLE_NOCOLOR", "1"),
	)
}

func digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("read playbook: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash playbook: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func stampPath(env *steps.Env, playbook string) string {
	key := sha256.Sum256([]byte(playbook))
	return filepath.Join(env.StateDir, "ansible", hex.EncodeToString(key[:8])+".sha256")
}
