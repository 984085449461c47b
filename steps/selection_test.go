package steps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newSelectionRegistry(t *testing.T) *Registry {
	t.Helper()
	var order []string
	return mustRegistry(t,
		recordingStep("cli", &order),
		recordingStep("ssh", &order),
		recordingStep("shell", &order),
		recordingStep("docker", &order),
	)
}

func TestSelectDeduplicatesPreservingFirstSeenOrder(t *testing.T) {
	t.Parallel()

	reg := newSelectionRegistry(t)

	sel, err := Select(reg, []string{"cli", "cli", "docker"})
	require.NoError(t, err)
	require.Equal(t, []string{"cli", "docker"}, sel.IDs)
	require.False(t, sel.Defaulted)

	sel, err = Select(reg, []string{"docker", "shell", "docker", "cli", "shell"})
	require.NoError(t, err)
	require.Equal(t, []string{"docker", "shell", "cli"}, sel.IDs)
}

func TestSelectDefaultsToAllWhenEmpty(t *testing.T) {
	t.Parallel()

	reg := newSelectionRegistry(t)
	sel, err := Select(reg, nil)
	require.NoError(t, err)
	require.True(t, sel.Defaulted)
	require.Equal(t, reg.Names(), sel.IDs)
}

func TestSelectAllKeywordAnywhere(t *testing.T) {
	t.Parallel()

	reg := newSelectionRegistry(t)
	for _, tokens := range [][]string{
		{"all"},
		{"docker", "all"},
		{"shell", "all", "cli", "shell"},
	} {
		sel, err := Select(reg, tokens)
		require.NoError(t, err, tokens)
		require.Equal(t, []string{"cli", "ssh", "shell", "docker"}, sel.IDs, tokens)
		require.True(t, sel.All)
	}
}

func TestSelectRejectsUnknownTokenInAnyPosition(t *testing.T) {
	t.Parallel()

	reg := newSelectionRegistry(t)
	for _, tokens := range [][]string{
		{"bogus"},
		{"bogus", "cli"},
		{"cli", "bogus"},
		{"cli", "all", "bogus"},
		{""},
		{"CLI"},
	} {
		_, err := Select(reg, tokens)
		require.Error(t, err, tokens)
		var unknown UnknownStepError
		require.ErrorAs(t, err, &unknown)
		require.Equal(t, reg.Names(), unknown.Known)
	}
}

func TestSelectionRequiresPrivilege(t *testing.T) {
	t.Parallel()

	reg := mustRegistry(t,
		NewFuncStep(Metadata{ID: "ssh"}, nil, func(context.Context, *Env) error { return nil }),
		NewFuncStep(Metadata{ID: "cli", Privileged: true}, nil, func(context.Context, *Env) error { return nil }),
	)
	require.False(t, Selection{IDs: []string{"ssh"}}.RequiresPrivilege(reg))
	require.True(t, Selection{IDs: []string{"ssh", "cli"}}.RequiresPrivilege(reg))
}

func TestRegistryRejectsDuplicatesAndReservedIDs(t *testing.T) {
	t.Parallel()

	var order []string
	_, err := NewRegistry(recordingStep("cli", &order), recordingStep("cli", &order))
	require.Error(t, err)
	require.IsType(t, DuplicateStepError{}, err)

	_, err = NewRegistry(recordingStep("all", &order))
	require.Error(t, err)
	require.IsType(t, ValidationError{}, err)

	_, err = NewRegistry(anonymousStep{})
	require.Error(t, err)
	require.IsType(t, ValidationError{}, err)
}

// anonymousStep has no ID; NewFuncStep refuses to build one.
type anonymousStep struct{}

func (anonymousStep) Metadata() Metadata { return Metadata{Title: "anonymous"} }
func (anonymousStep) Satisfied(context.Context, *Env) (bool, error) { return false, nil }
func (anonymousStep) Apply(context.Context, *Env) error { return nil }
