package sudoensure

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BrianJOC/workstation-bootstrap/steps"
	"github.com/BrianJOC/workstation-bootstrap/utils/command"
	"github.com/BrianJOC/workstation-bootstrap/utils/command/commandtest"
	"github.com/BrianJOC/workstation-bootstrap/utils/privilege"
)

func TestAcquirePassesPasswordAndEUID(t *testing.T) {
	t.Parallel()

	fake := &privilege.ElevatedRunner{}
	called := false
	a := New(commandtest.New()).
		WithEUID(func() int { return 1000 }).
		WithEnsurer(func(_ context.Context, _ command.InputRunner, euid int, password privilege.Password) (*privilege.ElevatedRunner, error) {
			require.Equal(t, 1000, euid)
			require.Equal(t, "secret", password.Value)
			called = true
			return fake, nil
		})

	r, err := a.Acquire(context.Background(), "secret")
	require.NoError(t, err)
	require.True(t, called)
	require.Same(t, fake, r)
}

func TestAcquireRequestsPasswordWhenMissing(t *testing.T) {
	t.Parallel()

	a := New(commandtest.New()).WithEnsurer(func(context.Context, command.InputRunner, int, privilege.Password) (*privilege.ElevatedRunner, error) {
		return nil, privilege.PasswordRequiredError{}
	})

	_, err := a.Acquire(context.Background(), "")
	var inputErr steps.InputRequestError
	require.ErrorAs(t, err, &inputErr)
	require.Equal(t, InputPassword, inputErr.Input.ID)
	require.True(t, inputErr.Input.Secret)
}

func TestAcquireRequestsNewPasswordOnAuthFailure(t *testing.T) {
	t.Parallel()

	a := New(commandtest.New()).WithEnsurer(func(context.Context, command.InputRunner, int, privilege.Password) (*privilege.ElevatedRunner, error) {
		return nil, privilege.SudoAuthenticationError{Err: errors.New("bad password")}
	})

	_, err := a.Func()(context.Background(), "wrong")
	var inputErr steps.InputRequestError
	require.ErrorAs(t, err, &inputErr)
	require.Contains(t, inputErr.Reason, "rejected")
}

func TestAcquirePropagatesOtherErrors(t *testing.T) {
	t.Parallel()

	a := New(commandtest.New()).WithEnsurer(func(context.Context, command.InputRunner, int, privilege.Password) (*privilege.ElevatedRunner, error) {
		return nil, privilege.SudoPermissionError{Stderr: "dev is not in the sudoers file"}
	})

	_, err := a.Acquire(context.Background(), "")
	require.IsType(t, privilege.SudoPermissionError{}, err)
}

func TestAcquireAsRootWithRealEnsurer(t *testing.T) {
	t.Parallel()

	a := New(commandtest.New()).WithEUID(func() int { return 0 })
	r, err := a.Acquire(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, privilege.MethodRoot, r.(*privilege.ElevatedRunner).Method())
}
