// Package sudoensure turns local privilege escalation into a steps.PrivilegeAcquirer.
package sudoensure

import (
	"context"
	"errors"
	"os"

	"github.com/BrianJOC/workstation-bootstrap/steps"
	"github.com/BrianJOC/workstation-bootstrap/utils/command"
	"github.com/BrianJOC/workstation-bootstrap/utils/privilege"
)

// InputPassword identifies the sudo password input.
const InputPassword = "password"

// Ensurer wraps privilege escalation.
type Ensurer func(ctx context.Context, base command.InputRunner, euid int, password privilege.Password) (*privilege.ElevatedRunner, error)

// Acquirer resolves elevated access for the run.
type Acquirer struct {
	base   command.InputRunner
	euid   func() int
	ensure Ensurer
}

// New creates an Acquirer that elevates commands executed through base.
func New(base command.InputRunner) *Acquirer {
	return &Acquirer{
		base:   base,
		euid:   os.Geteuid,
		ensure: privilege.Acquire,
	}
}

// WithEnsurer allows injecting a custom ensurer for testing.
func (a *Acquirer) WithEnsurer(fn Ensurer) *Acquirer {
	if fn != nil {
		a.ensure = fn
	}
	return a
}

// WithEUID overrides how the effective user ID is read.
func (a *Acquirer) WithEUID(fn func() int) *Acquirer {
	if fn != nil {
		a.euid = fn
	}
	return a
}

// Acquire implements steps.PrivilegeAcquirer. Missing or rejected passwords are
// reported as steps.InputRequestError so the manager can prompt for another.
func (a *Acquirer) Acquire(ctx context.Context, password string) (command.Runner, error) {
	elevated, err := a.ensure(ctx, a.base, a.euid(), privilege.Password{Value: password})
	if err == nil {
		return elevated, nil
	}

	var required privilege.PasswordRequiredError
	if errors.As(err, &required) {
		return nil, steps.InputRequestError{Input: passwordInputDefinition(), Reason: "sudo password required"}
	}
	var auth privilege.SudoAuthenticationError
	if errors.As(err, &auth) {
		return nil, steps.InputRequestError{Input: passwordInputDefinition(), Reason: "password rejected; please enter a new password"}
	}
	return nil, err
}

// Func adapts the acquirer to the manager option signature.
func (a *Acquirer) Func() steps.PrivilegeAcquirer {
	return a.Acquire
}

func passwordInputDefinition() steps.InputDefinition {
	return steps.InputDefinition{
		ID:          InputPassword,
		Label:       "Sudo Password",
		Description: "Password for privilege escalation",
		Kind:        steps.InputKindSecret,
		Secret:      true,
		Required:    true,
	}
}
