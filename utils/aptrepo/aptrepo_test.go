package aptrepo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BrianJOC/workstation-bootstrap/utils/command/commandtest"
)

func dockerSource() Source {
	return Source{
		Name:       "docker",
		URL:        "https://download.docker.com/linux/debian",
		KeyURL:     "https://download.docker.com/linux/debian/gpg",
		Suite:      "bookworm",
		Components: []string{"stable"},
		Arch:       "amd64",
	}
}

func TestSourceLine(t *testing.T) {
	t.Parallel()

	src := dockerSource()
	require.Equal(t, "/etc/apt/keyrings/docker.asc", src.KeyringPath())
	require.Equal(t, "/etc/apt/sources.list.d/docker.list", src.ListPath())
	require.Equal(t,
		"deb [arch=amd64 signed-by=/etc/apt/keyrings/docker.asc] https://download.docker.com/linux/debian bookworm stable",
		src.Line())
}

func TestSourceValidate(t *testing.T) {
	t.Parallel()

	src := dockerSource()
	require.NoError(t, src.Validate())

	src.Arch = ""
	var srcErr SourceError
	require.ErrorAs(t, src.Validate(), &srcErr)
	require.Equal(t, "arch", srcErr.Field)
}

func TestConfigured(t *testing.T) {
	t.Parallel()

	r := commandtest.New(commandtest.Response{Match: "grep -qxF", Once: true})
	ok, err := Configured(context.Background(), r, dockerSource())
	require.NoError(t, err)
	require.True(t, ok)

	r.Add(commandtest.Response{Match: "grep -qxF", Err: errors.New("exit status 1")})
	ok, err = Configured(context.Background(), r, dockerSource())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAddKeyAndWriteList(t *testing.T) {
	t.Parallel()

	r := commandtest.New(commandtest.Response{})
	require.NoError(t, AddKey(context.Background(), r, dockerSource()))
	require.NoError(t, WriteList(context.Background(), r, dockerSource()))

	calls := r.Calls()
	require.Len(t, calls, 3)
	require.Contains(t, calls[0].Cmd, "curl -fsSL -o '/etc/apt/keyrings/docker.asc' 'https://download.docker.com/linux/debian/gpg'")
	require.Equal(t, "chmod a+r '/etc/apt/keyrings/docker.asc'", calls[1].Cmd)
	require.Contains(t, calls[2].Cmd, "> '/etc/apt/sources.list.d/docker.list'")
}

func TestRefreshIsScoped(t *testing.T) {
	t.Parallel()

	r := commandtest.New(commandtest.Response{Match: "apt-get update"})
	require.NoError(t, Refresh(context.Background(), r, dockerSource()))
	cmd := r.Calls()[0].Cmd
	require.Contains(t, cmd, "Dir::Etc::sourcelist='sources.list.d/docker.list'")
	require.Contains(t, cmd, "Dir::Etc::sourceparts=-")
}

func TestOperationsPropagateErrors(t *testing.T) {
	t.Parallel()

	r := commandtest.New(commandtest.Response{Err: errors.New("exit status 1"), Stderr: "permission denied"})
	require.IsType(t, CommandError{}, WriteList(context.Background(), r, dockerSource()))
	require.IsType(t, CommandError{}, Refresh(context.Background(), r, dockerSource()))
	require.IsType(t, RunnerError{}, AddKey(context.Background(), nil, dockerSource()))
}
