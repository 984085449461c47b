package stepapp

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BrianJOC/workstation-bootstrap/steps"
)

func TestConsoleObserver(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	c := NewConsole(&out)
	meta := steps.Metadata{ID: "fonts", Title: "Fonts"}
	w := steps.Warning{StepID: "fonts", ActionID: "cache", Err: errors.New("fc-cache missing")}

	c.StepStarted(meta)
	c.StepWarned(meta, w)
	c.StepCompleted(steps.Result{Meta: meta, Outcome: steps.OutcomeWarned, Warnings: []steps.Warning{w}})

	require.Contains(t, out.String(), "Fonts")
	require.Contains(t, out.String(), "cache: fc-cache missing")
	require.Contains(t, out.String(), "warned")
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	PrintSummary(&out, steps.Report{Results: []steps.Result{
		{Meta: steps.Metadata{ID: "cli"}, Outcome: steps.OutcomeSkipped},
		{Meta: steps.Metadata{ID: "docker"}, Outcome: steps.OutcomeFailed, Err: errors.New("boom")},
	}})
	require.Contains(t, out.String(), "docker")
	require.Contains(t, out.String(), "0 applied, 1 skipped, 0 warned, 1 failed, 0 pending")

	out.Reset()
	PrintSummary(&out, steps.Report{})
	require.Empty(t, out.String())
}

func TestPrintCheckReportsGuardVerdicts(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	PrintCheck(&out, steps.Report{Results: []steps.Result{
		{Meta: steps.Metadata{ID: "cli"}, Outcome: steps.OutcomeSkipped},
		{Meta: steps.Metadata{ID: "docker"}, Outcome: steps.OutcomePending},
	}})
	require.Contains(t, out.String(), "cli satisfied")
	require.Contains(t, out.String(), "docker pending")
}

func TestPrintListWritesBareIDs(t *testing.T) {
	t.Parallel()

	reg := mustRegistry(t,
		steps.NewFuncStep(steps.Metadata{ID: "cli", Description: "Install tools.", Privileged: true}, nil, func(context.Context, *steps.Env) error { return nil }),
		steps.NewFuncStep(steps.Metadata{ID: "ssh", Description: "Generate a key."}, nil, func(context.Context, *steps.Env) error { return nil }),
	)
	var out bytes.Buffer
	PrintList(&out, reg)
	require.Equal(t, "cli\nssh\n", out.String())
}

func TestTerminalPromptReadsLineFromNonTerminal(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stdin")
	require.NoError(t, os.WriteFile(path, []byte("s3cret\n"), 0o600))
	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()

	var out bytes.Buffer
	value, err := NewTerminalPrompt(in, &out).RequestInput(steps.PrivilegeMetadata, steps.SecretInput("password", "Sudo Password", ""), "sudo password required")
	require.NoError(t, err)
	require.Equal(t, "s3cret", value)
	require.Contains(t, out.String(), "Sudo Password: ")
}
