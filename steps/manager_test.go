package steps

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BrianJOC/workstation-bootstrap/utils/command"
	"github.com/BrianJOC/workstation-bootstrap/utils/command/commandtest"
)

func TestManagerRunsStepsInSelectionOrder(t *testing.T) {
	t.Parallel()

	var order []string
	reg := mustRegistry(t,
		recordingStep("cli", &order),
		recordingStep("shell", &order),
		recordingStep("docker", &order),
	)

	sel := Selection{IDs: []string{"docker", "cli"}}
	report, err := NewManager(reg).Run(context.Background(), testEnv(), sel)
	require.NoError(t, err)
	require.Equal(t, []string{"docker", "cli"}, order)
	require.Equal(t, 2, report.Count(OutcomeApplied))
}

func TestManagerStopsOnError(t *testing.T) {
	t.Parallel()

	var order []string
	failErr := errors.New("boom")
	reg := mustRegistry(t,
		NewFuncStep(Metadata{ID: "cli"}, nil, func(context.Context, *Env) error {
			order = append(order, "cli")
			return failErr
		}),
		recordingStep("docker", &order),
	)

	report, err := NewManager(reg).Run(context.Background(), testEnv(), Selection{IDs: []string{"cli", "docker"}})
	require.Error(t, err)
	var execErr StepExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, "cli", execErr.Step.ID)
	require.ErrorIs(t, err, failErr)
	require.Equal(t, []string{"cli"}, order)
	require.Len(t, report.Results, 1)
	require.Equal(t, OutcomeFailed, report.Results[0].Outcome)
}

func TestManagerSkipsSatisfiedSteps(t *testing.T) {
	t.Parallel()

	applied := false
	reg := mustRegistry(t, NewFuncStep(Metadata{ID: "ssh"},
		func(context.Context, *Env) (bool, error) { return true, nil },
		func(context.Context, *Env) error {
			applied = true
			return nil
		},
	))

	report, err := NewManager(reg).Run(context.Background(), testEnv(), Selection{IDs: []string{"ssh"}})
	require.NoError(t, err)
	require.False(t, applied)
	require.Equal(t, OutcomeSkipped, report.Results[0].Outcome)
}

func TestManagerCheckOnlyNeverApplies(t *testing.T) {
	t.Parallel()

	applied := false
	reg := mustRegistry(t,
		NewFuncStep(Metadata{ID: "cli", Privileged: true}, nil, func(context.Context, *Env) error {
			applied = true
			return nil
		}),
	)
	acquired := false
	manager := NewManager(reg, WithCheckOnly(), WithPrivilegeAcquirer(func(context.Context, string) (command.Runner, error) {
		acquired = true
		return nil, nil
	}))

	report, err := manager.Run(context.Background(), testEnv(), Selection{IDs: []string{"cli"}})
	require.NoError(t, err)
	require.False(t, applied)
	require.False(t, acquired)
	require.Equal(t, OutcomePending, report.Results[0].Outcome)
}

func TestManagerGuardErrorIsFatal(t *testing.T) {
	t.Parallel()

	reg := mustRegistry(t, NewFuncStep(Metadata{ID: "cli"},
		func(context.Context, *Env) (bool, error) { return false, errors.New("dpkg-query missing") },
		func(context.Context, *Env) error { return nil },
	))

	_, err := NewManager(reg).Run(context.Background(), testEnv(), Selection{IDs: []string{"cli"}})
	require.ErrorContains(t, err, "dpkg-query missing")
}

func TestManagerReportsDispatchError(t *testing.T) {
	t.Parallel()

	reg := mustRegistry(t)
	_, err := NewManager(reg).Run(context.Background(), testEnv(), Selection{IDs: []string{"ghost"}})
	require.Error(t, err)
	require.IsType(t, DispatchError{}, err)
}

func TestManagerStopsBetweenStepsWhenCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var order []string
	reg := mustRegistry(t,
		NewFuncStep(Metadata{ID: "cli"}, nil, func(context.Context, *Env) error {
			order = append(order, "cli")
			cancel()
			return nil
		}),
		recordingStep("docker", &order),
	)

	_, err := NewManager(reg).Run(ctx, testEnv(), Selection{IDs: []string{"cli", "docker"}})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, []string{"cli"}, order)
}

func TestManagerObserverNotifications(t *testing.T) {
	t.Parallel()

	var started, warned, completed []string
	observer := ObserverFuncs{
		OnStart:   func(meta Metadata) { started = append(started, meta.ID) },
		OnWarning: func(meta Metadata, w Warning) { warned = append(warned, meta.ID+":"+w.ActionID) },
		OnComplete: func(res Result) {
			completed = append(completed, fmt.Sprintf("%s=%s", res.Meta.ID, res.Outcome))
		},
	}

	meta := Metadata{ID: "shell", Actions: []Action{Optional("chsh", "change login shell")}}
	reg := mustRegistry(t, NewFuncStep(meta, nil, func(_ context.Context, env *Env) error {
		return env.Perform(meta, "chsh", func() error { return errors.New("chsh: PAM failure") })
	}))

	report, err := NewManager(reg, WithObserver(observer)).Run(context.Background(), testEnv(), Selection{IDs: []string{"shell"}})
	require.NoError(t, err)
	require.Equal(t, []string{"shell"}, started)
	require.Equal(t, []string{"shell:chsh"}, warned)
	require.Equal(t, []string{"shell=warned"}, completed)
	require.Len(t, report.Warnings(), 1)
}

func TestManagerAcquiresPrivilegeOnceWithPrompt(t *testing.T) {
	t.Parallel()

	elevated := commandtest.New()
	var inputs []string
	acquirer := func(_ context.Context, input string) (command.Runner, error) {
		inputs = append(inputs, input)
		if input != "secret" {
			return nil, InputRequestError{Input: SecretInput("password", "Sudo Password", ""), Reason: "sudo password required"}
		}
		return elevated, nil
	}
	handlerCalls := 0
	handler := InputHandlerFunc(func(meta Metadata, input InputDefinition, reason string) (string, error) {
		handlerCalls++
		require.Equal(t, PrivilegeMetadata.ID, meta.ID)
		require.Equal(t, "password", input.ID)
		return "secret", nil
	})

	var got []command.Runner
	priv := func(id string) Step {
		meta := Metadata{ID: id, Privileged: true}
		return NewFuncStep(meta, nil, func(_ context.Context, env *Env) error {
			r, err := env.Privileged(meta)
			got = append(got, r)
			return err
		})
	}
	reg := mustRegistry(t, priv("cli"), priv("docker"))

	manager := NewManager(reg, WithPrivilegeAcquirer(acquirer), WithInputHandler(handler))
	_, err := manager.Run(context.Background(), testEnv(), Selection{IDs: []string{"cli", "docker"}})
	require.NoError(t, err)
	require.Equal(t, []string{"", "secret"}, inputs)
	require.Equal(t, 1, handlerCalls)
	require.Equal(t, []command.Runner{elevated, elevated}, got)
}

func TestManagerPrivilegeFailureIsFatalForPrivilegedStep(t *testing.T) {
	t.Parallel()

	var order []string
	reg := mustRegistry(t,
		recordingStep("ssh", &order),
		NewFuncStep(Metadata{ID: "cli", Privileged: true}, nil, func(context.Context, *Env) error {
			order = append(order, "cli")
			return nil
		}),
	)
	denied := errors.New("user is not in the sudoers file")
	manager := NewManager(reg, WithPrivilegeAcquirer(func(context.Context, string) (command.Runner, error) {
		return nil, denied
	}))

	_, err := manager.Run(context.Background(), testEnv(), Selection{IDs: []string{"ssh", "cli"}})
	require.Error(t, err)
	var privErr PrivilegeError
	require.ErrorAs(t, err, &privErr)
	require.Equal(t, "cli", privErr.StepID)
	require.ErrorIs(t, err, denied)
	require.Equal(t, []string{"ssh"}, order)
}

func TestManagerStopsPromptingAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	calls := 0
	acquirer := func(context.Context, string) (command.Runner, error) {
		calls++
		return nil, InputRequestError{Input: SecretInput("password", "Sudo Password", ""), Reason: "password rejected"}
	}
	handler := InputHandlerFunc(func(Metadata, InputDefinition, string) (string, error) {
		return "wrong", nil
	})
	reg := mustRegistry(t, NewFuncStep(Metadata{ID: "cli", Privileged: true}, nil, func(context.Context, *Env) error { return nil }))

	_, err := NewManager(reg, WithPrivilegeAcquirer(acquirer), WithInputHandler(handler)).
		Run(context.Background(), testEnv(), Selection{IDs: []string{"cli"}})
	require.Error(t, err)
	require.Equal(t, maxInputAttempts+1, calls)
}

func TestManagerInputHandlerError(t *testing.T) {
	t.Parallel()

	acquirer := func(context.Context, string) (command.Runner, error) {
		return nil, InputRequestError{Input: SecretInput("password", "Sudo Password", "")}
	}
	handler := InputHandlerFunc(func(Metadata, InputDefinition, string) (string, error) {
		return "", fmt.Errorf("user cancelled")
	})
	reg := mustRegistry(t, NewFuncStep(Metadata{ID: "cli", Privileged: true}, nil, func(context.Context, *Env) error { return nil }))

	_, err := NewManager(reg, WithPrivilegeAcquirer(acquirer), WithInputHandler(handler)).
		Run(context.Background(), testEnv(), Selection{IDs: []string{"cli"}})
	require.ErrorContains(t, err, "user cancelled")
}

func testEnv() *Env {
	return NewEnv(Facts{Arch: "amd64", Codename: "bookworm", Home: "/home/dev", User: "dev"}, commandtest.New())
}

func mustRegistry(t *testing.T, steps ...Step) *Registry {
	t.Helper()
	reg, err := NewRegistry(steps...)
	require.NoError(t, err)
	return reg
}

func recordingStep(id string, order *[]string) Step {
	return NewFuncStep(Metadata{ID: id, Title: id}, nil, func(context.Context, *Env) error {
		*order = append(*order, id)
		return nil
	})
}
