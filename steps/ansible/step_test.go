package ansible

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BrianJOC/workstation-bootstrap/config"
	"github.com/BrianJOC/workstation-bootstrap/steps"
	"github.com/BrianJOC/workstation-bootstrap/steps/steptest"
	"github.com/BrianJOC/workstation-bootstrap/utils/ansibleplaybook"
	"github.com/BrianJOC/workstation-bootstrap/utils/command/commandtest"
)

func writePlaybook(t *testing.T, env *steps.Env, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(env.Facts.Home, name), []byte(body), 0o644))
}

func installedRunners() (*commandtest.Runner, *commandtest.Runner) {
	return commandtest.New(commandtest.Response{Match: "dpkg-query", Stdout: "installed"}),
		commandtest.New(commandtest.Response{Match: "dpkg-query", Stdout: "installed"})
}

func TestPlaybookRunsOncePerContent(t *testing.T) {
	t.Parallel()

	user, root := installedRunners()
	env := steptest.Env(t, user, root)
	writePlaybook(t, env, "site.yml", "- hosts: localhost\n")

	var reqs []ansibleplaybook.RunRequest
	step := New(config.Ansible{
		Packages:  []string{"ansible"},
		Playbooks: []string{"~/site.yml"},
		ExtraVars: map[string]string{"user": "dev"},
	}, WithRunner(func(_ context.Context, req ansibleplaybook.RunRequest) error {
		reqs = append(reqs, req)
		return nil
	}))

	res, err := steptest.Run(t, env, step)
	require.NoError(t, err)
	require.Equal(t, steps.OutcomeApplied, res.Outcome)
	require.Len(t, reqs, 1)
	require.Equal(t, filepath.Join(env.Facts.Home, "site.yml"), reqs[0].PlaybookPath)
	require.Equal(t, map[string]interface{}{"user": "dev"}, reqs[0].ExtraVars)
	require.False(t, reqs[0].Become)

	res, err = steptest.Run(t, env, step)
	require.NoError(t, err)
	require.Equal(t, steps.OutcomeSkipped, res.Outcome)
	require.Len(t, reqs, 1)

	writePlaybook(t, env, "site.yml", "- hosts: localhost\n  tasks: []\n")
	ok, err := step.Satisfied(context.Background(), env)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNoPlaybooksIsSatisfiedOnceInstalled(t *testing.T) {
	t.Parallel()

	user, root := installedRunners()
	env := steptest.Env(t, user, root)

	ok, err := New(config.Ansible{Packages: []string{"ansible"}}).Satisfied(context.Background(), env)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestPlaybookFailureIsFatalAndLeavesNoStamp(t *testing.T) {
	t.Parallel()

	user, root := installedRunners()
	env := steptest.Env(t, user, root)
	writePlaybook(t, env, "site.yml", "- hosts: localhost\n")

	step := New(config.Ansible{
		Packages:  []string{"ansible"},
		Playbooks: []string{"site.yml"},
	}, WithRunner(func(context.Context, ansibleplaybook.RunRequest) error {
		return errors.New("exit status 2")
	}))

	_, err := steptest.Run(t, env, step)
	var actionErr steps.ActionError
	require.ErrorAs(t, err, &actionErr)
	require.Equal(t, ActionPlaybooks, actionErr.ActionID)

	_, statErr := os.Stat(filepath.Join(env.StateDir, "ansible"))
	require.True(t, os.IsNotExist(statErr))
}

func TestMissingPlaybookFailsGuard(t *testing.T) {
	t.Parallel()

	user, root := installedRunners()
	env := steptest.Env(t, user, root)

	_, err := New(config.Ansible{Packages: []string{"ansible"}, Playbooks: []string{"/nowhere/site.yml"}}).
		Satisfied(context.Background(), env)
	require.ErrorContains(t, err, "read playbook")
}

func TestInstallsAnsibleWhenMissing(t *testing.T) {
	t.Parallel()

	user := commandtest.New(commandtest.Response{Match: "dpkg-query", Err: errors.New("exit status 1")})
	root := commandtest.New(
		commandtest.Response{Match: "dpkg-query", Err: errors.New("exit status 1")},
		commandtest.Response{Match: "apt-get"},
	)
	env := steptest.Env(t, user, root)

	res, err := steptest.Run(t, env, New(config.Ansible{Packages: []string{"ansible"}}))
	require.NoError(t, err)
	require.Equal(t, steps.OutcomeApplied, res.Outcome)
	require.Equal(t, 1, root.Count("apt-get install -y 'ansible'"))
}
