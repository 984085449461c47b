package systemuser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BrianJOC/workstation-bootstrap/utils/command/commandtest"
)

func TestInGroup(t *testing.T) {
	t.Parallel()

	r := commandtest.New(commandtest.Response{Match: "id -nG 'dev'", Stdout: "dev adm sudo docker\n"})
	ok, err := InGroup(context.Background(), r, "dev", "docker")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = InGroup(context.Background(), r, "dev", "libvirt")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAddToGroup(t *testing.T) {
	t.Parallel()

	r := commandtest.New(commandtest.Response{Match: "usermod"})
	require.NoError(t, AddToGroup(context.Background(), r, "dev", "docker"))
	require.Equal(t, "usermod -aG 'docker' 'dev'", r.Calls()[0].Cmd)
}

func TestLoginShell(t *testing.T) {
	t.Parallel()

	r := commandtest.New(commandtest.Response{Match: "getent passwd", Stdout: "dev:x:1000:1000:Dev,,,:/home/dev:/bin/bash\n"})
	shell, err := LoginShell(context.Background(), r, "dev")
	require.NoError(t, err)
	require.Equal(t, "/bin/bash", shell)

	r = commandtest.New(commandtest.Response{Match: "getent passwd", Stdout: "garbage"})
	_, err = LoginShell(context.Background(), r, "dev")
	require.IsType(t, ValidationError{}, err)
}

func TestSetLoginShell(t *testing.T) {
	t.Parallel()

	r := commandtest.New(commandtest.Response{Match: "usermod -s"})
	require.NoError(t, SetLoginShell(context.Background(), r, "dev", "/usr/bin/zsh"))
	require.Equal(t, "usermod -s '/usr/bin/zsh' 'dev'", r.Calls()[0].Cmd)

	require.IsType(t, ValidationError{}, SetLoginShell(context.Background(), r, "dev", "zsh"))
}

func TestValidationAndCommandErrors(t *testing.T) {
	t.Parallel()

	_, err := InGroup(context.Background(), nil, "dev", "docker")
	require.IsType(t, RunnerError{}, err)

	r := commandtest.New(commandtest.Response{Err: errors.New("exit status 6"), Stderr: "usermod: group 'docker' does not exist"})
	require.IsType(t, ValidationError{}, AddToGroup(context.Background(), r, "my user", "docker"))

	err = AddToGroup(context.Background(), r, "dev", "docker")
	require.IsType(t, CommandError{}, err)
	require.Contains(t, err.Error(), "does not exist")
}
