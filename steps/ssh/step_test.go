package ssh

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BrianJOC/workstation-bootstrap/config"
	"github.com/BrianJOC/workstation-bootstrap/steps"
	"github.com/BrianJOC/workstation-bootstrap/steps/steptest"
	"github.com/BrianJOC/workstation-bootstrap/utils/command/commandtest"
)

func TestApplyGeneratesOnceThenSkips(t *testing.T) {
	t.Parallel()

	user := commandtest.New()
	env := steptest.Env(t, user, nil)
	step := New(config.SSH{KeyType: "ed25519"})

	ok, err := step.Satisfied(context.Background(), env)
	require.NoError(t, err)
	require.False(t, ok)

	res, err := steptest.Run(t, env, step)
	require.NoError(t, err)
	require.Equal(t, steps.OutcomeApplied, res.Outcome)

	private := filepath.Join(env.Facts.Home, ".ssh", "id_ed25519")
	first, err := os.ReadFile(private)
	require.NoError(t, err)
	pub, err := os.ReadFile(private + ".pub")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(strings.TrimSpace(string(pub)), "dev@workstation"))

	res, err = steptest.Run(t, env, step)
	require.NoError(t, err)
	require.Equal(t, steps.OutcomeSkipped, res.Outcome)

	second, err := os.ReadFile(private)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Empty(t, user.Calls())
}

func TestApplyRestoresMissingPublicKey(t *testing.T) {
	t.Parallel()

	env := steptest.Env(t, commandtest.New(), nil)
	step := New(config.SSH{KeyType: "ed25519", Comment: "dev@laptop"})

	_, err := steptest.Run(t, env, step)
	require.NoError(t, err)

	pubPath := filepath.Join(env.Facts.Home, ".ssh", "id_ed25519.pub")
	require.NoError(t, os.Remove(pubPath))

	ok, err := step.Satisfied(context.Background(), env)
	require.NoError(t, err)
	require.False(t, ok)

	res, err := steptest.Run(t, env, step)
	require.NoError(t, err)
	require.Equal(t, steps.OutcomeApplied, res.Outcome)
	_, err = os.Stat(pubPath)
	require.NoError(t, err)
}

func TestRSAKeyPath(t *testing.T) {
	t.Parallel()

	env := steptest.Env(t, commandtest.New(), nil)
	_, err := steptest.Run(t, env, New(config.SSH{KeyType: "rsa", Bits: 2048}))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(env.Facts.Home, ".ssh", "id_rsa"))
	require.NoError(t, err)
}

func TestInvalidKeyTypeFails(t *testing.T) {
	t.Parallel()

	env := steptest.Env(t, commandtest.New(), nil)
	_, err := steptest.Run(t, env, New(config.SSH{KeyType: "dsa"}))
	require.Error(t, err)
}
