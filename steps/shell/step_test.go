package shell

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
	"github.com/BrianJOC/workstation-bootstrap/utils/command/commandtest"
)

func testConfig() config.Shell {
	return config.Shell{
		Packages:         []string{"zsh"},
		OhMyZshRepo:      "https://github.com/ohmyzsh/ohmyzsh.git",
		OhMyZshDir:       ".oh-my-zsh",
		RCFile:           ".zshrc",
		ProfileLines:     []string{`export ZSH="$HOME/.oh-my-zsh"`},
		LoginShell:       "/usr/bin/zsh",
		ChangeLoginShell: true,
	}
}

func TestApplyFreshHost(t *testing.T) {
	t.Parallel()

	user := commandtest.New(
		commandtest.Response{Match: "dpkg-query", Err: errors.New("exit status 1")},
		commandtest.Response{Match: "getent passwd", Stdout: "dev:x:1000:1000::/home/dev:/bin/bash"},
		commandtest.Response{Match: "git clone"},
	)
	root := commandtest.New(
		commandtest.Response{Match: "dpkg-query", Err: errors.New("exit status 1")},
		commandtest.Response{Match: "apt-get"},
		commandtest.Response{Match: "usermod -s"},
	)
	env := steptest.Env(t, user, root)

	res, err := steptest.Run(t, env, New(testConfig()))
	require.NoError(t, err)
	require.Equal(t, steps.OutcomeApplied, res.Outcome)
	require.Equal(t, 1, root.Count("apt-get install -y 'zsh'"))
	require.Equal(t, 1, user.Count("git clone --depth 1 'https://github.com/ohmyzsh/ohmyzsh.git'"))
	require.Equal(t, 1, root.Count("usermod -s '/usr/bin/zsh' 'dev'"))

	rc, err := os.ReadFile(filepath.Join(env.Facts.Home, ".zshrc"))
	require.NoError(t, err)
	require.Equal(t, "export ZSH=\"$HOME/.oh-my-zsh\"\n", string(rc))

	// The failed shell change does not keep the guard open.
	ok, err := New(testConfig()).Satisfied(context.Background(), env)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, root.Count("usermod -s"))
}

func TestSatisfiedWhenEverythingInPlace(t *testing.T) {
	t.Parallel()

	user := commandtest.New(
		commandtest.Response{Match: "dpkg-query", Stdout: "installed"},
		commandtest.Response{Match: "getent passwd", Stdout: "dev:x:1000:1000::/home/dev:/usr/bin/zsh"},
	)
	env := steptest.Env(t, user, commandtest.New())
	require.NoError(t, os.MkdirAll(filepath.Join(env.Facts.Home, ".oh-my-zsh", ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.Facts.Home, ".zshrc"), []byte("export ZSH=\"$HOME/.oh-my-zsh\"\n"), 0o644))

	ok, err := New(testConfig()).Satisfied(context.Background(), env)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRerunUpdatesCheckoutAndKeepsSingleLine(t *testing.T) {
	t.Parallel()

	user := commandtest.New(
		commandtest.Response{Match: "dpkg-query", Stdout: "installed"},
		commandtest.Response{Match: "getent passwd", Stdout: "dev:x:1000:1000::/home/dev:/bin/bash"},
		commandtest.Response{Match: "pull --ff-only"},
	)
	root := commandtest.New(
		commandtest.Response{Match: "dpkg-query", Stdout: "installed"},
		commandtest.Response{Match: "usermod -s", Err: errors.New("exit status 1"), Stderr: "usermod: PAM: Authentication failure"},
	)
	env := steptest.Env(t, user, root)
	require.NoError(t, os.MkdirAll(filepath.Join(env.Facts.Home, ".oh-my-zsh", ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.Facts.Home, ".zshrc"), []byte("export ZSH=\"$HOME/.oh-my-zsh\"\n"), 0o644))

	res, err := steptest.Run(t, env, New(testConfig()))
	require.NoError(t, err)
	require.Equal(t, steps.OutcomeWarned, res.Outcome)
	require.Equal(t, ActionLoginShell, res.Warnings[0].ActionID)
	require.Zero(t, user.Count("git clone"))
	require.Equal(t, 1, user.Count("pull --ff-only"))
	require.Zero(t, root.Count("apt-get"))

	rc, err := os.ReadFile(filepath.Join(env.Facts.Home, ".zshrc"))
	require.NoError(t, err)
	require.Equal(t, "export ZSH=\"$HOME/.oh-my-zsh\"\n", string(rc))

	// The failed shell change does not keep the guard open.
	ok, err := New(testConfig()).Satisfied(context.Background(), env)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, root.Count("usermod -s"))
}

func TestCloneFailureIsFatal(t *testing.T) {
	t.Parallel()

	user := commandtest.New(
		commandtest.Response{Match: "dpkg-query", Stdout: "installed"},
		commandtest.Response{Match: "git clone", Err: errors.New("exit status 128"), Stderr: "fatal: unable to access"},
	)
	root := commandtest.New(commandtest.Response{Match: "dpkg-query", Stdout: "installed"})
	env := steptest.Env(t, user, root)

	_, err := steptest.Run(t, env, New(testConfig()))
	var actionErr steps.ActionError
	require.ErrorAs(t, err, &actionErr)
	require.Equal(t, ActionOhMyZsh, actionErr.ActionID)
}
