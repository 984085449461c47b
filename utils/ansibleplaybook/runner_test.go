package ansibleplaybook

import (
	"bytes"
	"context"
	"testing"

	"github.com/apenella/go-ansible/pkg/execute"
	"github.com/apenella/go-ansible/pkg/options"
	"github.com/stretchr/testify/require"
)

func TestBuildCommandValidation(t *testing.T) {
	t.Parallel()

	_, err := BuildCommand(RunRequest{PlaybookPath: "  "})
	require.Error(t, err)

	var valErr ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Equal(t, "playbook path", valErr.Field)
}

func TestBuildCommandTargetsLocalhost(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd, err := BuildCommand(
		RunRequest{
			PlaybookPath: "/home/dev/dotfiles/site.yml ",
			ExtraVars:    map[string]interface{}{"user": "dev"},
		},
		WithStdout(stdout),
		WithStderr(stderr),
		WithEnvVar("ANSIBLE_STDOUT_CALLBACK", "json"),
	)
	require.NoError(t, err)

	require.Equal(t, []string{"/home/dev/dotfiles/site.yml"}, cmd.Playbooks)
	require.Equal(t, "localhost,", cmd.Options.Inventory)
	require.Equal(t, "localhost", cmd.Options.Limit)
	require.Equal(t, "dev", cmd.Options.ExtraVars["user"])
	require.Equal(t, "local", cmd.ConnectionOptions.Connection)
	require.Nil(t, cmd.PrivilegeEscalationOptions)

	exec, ok := cmd.Exec.(*execute.DefaultExecute)
	require.True(t, ok)
	require.Equal(t, stdout, exec.Write)
	require.Equal(t, stderr, exec.WriterError)
	require.Equal(t, "false", exec.EnvVars[options.AnsibleHostKeyCheckingEnv])
	require.Equal(t, "json", exec.EnvVars["ANSIBLE_STDOUT_CALLBACK"])
}

func TestBuildCommandBecome(t *testing.T) {
	t.Parallel()

	cmd, err := BuildCommand(RunRequest{PlaybookPath: "site.yml", Become: true})
	require.NoError(t, err)
	require.True(t, cmd.PrivilegeEscalationOptions.Become)
	require.Equal(t, becomeMethod, cmd.PrivilegeEscalationOptions.BecomeMethod)
	require.Equal(t, becomeUser, cmd.PrivilegeEscalationOptions.BecomeUser)
}

func TestRunWithCustomBinary(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), RunRequest{PlaybookPath: "site.yml"}, WithBinary("/usr/bin/true"))
	require.NoError(t, err)
}
