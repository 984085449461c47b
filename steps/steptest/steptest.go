// Package steptest builds execution environments for step tests.
package steptest

import (
	"testing"

	"github.com/BrianJOC/workstation-bootstrap/steps"
	"github.com/BrianJOC/workstation-bootstrap/utils/command/commandtest"
)

// Env returns an Env rooted in a temporary home and state directory. user
// serves unprivileged commands and root serves privileged ones; a nil root
// leaves the Env without elevated access.
func Env(t *testing.T, user, root *commandtest.Runner) *steps.Env {
	t.Helper()
	facts := steps.Facts{
		Arch:     "amd64",
		Codename: "bookworm",
		DistroID: "debian",
		User:     "dev",
		Home:     t.TempDir(),
	}
	opts := []steps.EnvOption{steps.WithStateDir(t.TempDir())}
	if root != nil {
		opts = append(opts, steps.WithPrivileged(root))
	}
	return steps.NewEnv(facts, user, opts...)
}

// Run applies step through a manager the way the runner does, returning the
// single result.
func Run(t *testing.T, env *steps.Env, step steps.Step) (steps.Result, error) {
	t.Helper()
	reg, err := steps.NewRegistry(step)
	if err != nil {
		t.Fatalf("register step: %v", err)
	}
	report, err := steps.NewManager(reg).Run(t.Context(), env, steps.Selection{IDs: []string{step.Metadata().ID}})
	if len(report.Results) == 0 {
		return steps.Result{}, err
	}
	return report.Results[0], err
}
