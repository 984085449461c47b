package steps

import (
	"fmt"
	"strings"
)

// DuplicateStepError occurs when a step with an existing ID is registered.
type DuplicateStepError struct {
	ID string
}

func (e DuplicateStepError) Error() string {
	return fmt.Sprintf("step with id %q already registered", e.ID)
}

// ValidationError represents invalid registry/step configuration.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("step validation failed: %s", e.Reason)
}

// UnknownStepError reports an input token that names no registered step.
type UnknownStepError struct {
	Token string
	Known []string
}

func (e UnknownStepError) Error() string {
	return fmt.Sprintf("unknown component %q (known: %s)", e.Token, strings.Join(e.Known, ", "))
}

// DispatchError indicates a selection referenced a step with no handler.
type DispatchError struct {
	ID string
}

func (e DispatchError) Error() string {
	return fmt.Sprintf("no handler registered for step %q", e.ID)
}

// UndeclaredActionError indicates a step performed an action missing from its metadata.
type UndeclaredActionError struct {
	StepID   string
	ActionID string
}

func (e UndeclaredActionError) Error() string {
	return fmt.Sprintf("step %s performed undeclared action %q", e.StepID, e.ActionID)
}

// ActionError wraps the failure of a required sub-action.
type ActionError struct {
	StepID   string
	ActionID string
	Err      error
}

func (e ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.ActionID, e.Err)
}

func (e ActionError) Unwrap() error {
	return e.Err
}

// PrivilegeError indicates a privileged step ran without elevated access.
type PrivilegeError struct {
	StepID string
	Err    error
}

func (e PrivilegeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("step %s requires elevated privileges", e.StepID)
	}
	return fmt.Sprintf("step %s requires elevated privileges: %v", e.StepID, e.Err)
}

func (e PrivilegeError) Unwrap() error {
	return e.Err
}

// InputRequestError indicates the runner requires additional input from the operator before continuing.
type InputRequestError struct {
	Input  InputDefinition
	Reason string
}

func (e InputRequestError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("input %s required: %s", e.Input.ID, e.Reason)
	}
	return fmt.Sprintf("input %s required", e.Input.ID)
}

// StepExecutionError wraps failures emitted by a specific step.
type StepExecutionError struct {
	Step Metadata
	Err  error
}

func (e StepExecutionError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step.ID, e.Err)
}

func (e StepExecutionError) Unwrap() error {
	return e.Err
}
