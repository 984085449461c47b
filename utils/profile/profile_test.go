package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureLineAppendsExactlyOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".zshrc")
	line := `export PATH="$PATH:/opt/nvim/bin"`

	wrote, err := EnsureLine(path, line)
	require.NoError(t, err)
	require.True(t, wrote)

	wrote, err = EnsureLine(path, "  "+line+"  ")
	require.NoError(t, err)
	require.False(t, wrote)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, line+"\n", string(content))
}

func TestEnsureLineAddsMissingTrailingNewline(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".profile")
	require.NoError(t, os.WriteFile(path, []byte("alias ll='ls -l'"), 0o644))

	wrote, err := EnsureLine(path, "export EDITOR=nvim")
	require.NoError(t, err)
	require.True(t, wrote)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "alias ll='ls -l'\nexport EDITOR=nvim\n", string(content))
}

func TestEnsureLinesCountsWrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", ".zshrc")
	lines := []string{"export GOPATH=$HOME/go", "export PATH=$PATH:/usr/local/go/bin"}

	added, err := EnsureLines(path, lines)
	require.NoError(t, err)
	require.Equal(t, 2, added)

	added, err = EnsureLines(path, lines)
	require.NoError(t, err)
	require.Zero(t, added)

	ok, err := HasLines(path, lines)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHasLineMissingFile(t *testing.T) {
	t.Parallel()

	ok, err := HasLine(filepath.Join(t.TempDir(), "absent"), "export A=1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEnsureLineRejectsInvalidLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".zshrc")
	_, err := EnsureLine(path, "   ")
	require.IsType(t, LineError{}, err)

	_, err = EnsureLine(path, "a\nb")
	require.IsType(t, LineError{}, err)
}
