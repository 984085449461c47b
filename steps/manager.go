package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/juju/loggo"

	"github.com/BrianJOC/workstation-bootstrap/utils/command"
)

var logger = loggo.GetLogger("bootstrap.steps")

// maxInputAttempts bounds how often the operator is asked for the sudo password.
const maxInputAttempts = 3

// PrivilegeAcquirer obtains an elevated runner. It returns an InputRequestError
// when it needs a value (typically a password) from the operator; input holds
// the most recent answer, or "" on the first call.
type PrivilegeAcquirer func(ctx context.Context, input string) (command.Runner, error)

// PrivilegeMetadata identifies privilege acquisition to input handlers.
var PrivilegeMetadata = Metadata{
	ID:          "privilege",
	Title:       "Elevated Privileges",
	Description: "Obtain root access for steps that modify system state.",
}

// Manager coordinates the ordered execution of a selection.
type Manager struct {
	registry     *Registry
	observers    []Observer
	inputHandler InputHandler
	acquire      PrivilegeAcquirer
	checkOnly    bool
}

// ManagerOption mutates manager configuration.
type ManagerOption func(*Manager)

// WithObserver registers an observer to receive lifecycle events.
func WithObserver(obs Observer) ManagerOption {
	return func(m *Manager) {
		if obs == nil {
			return
		}
		m.observers = append(m.observers, obs)
	}
}

// WithInputHandler registers a handler to satisfy input requests.
func WithInputHandler(handler InputHandler) ManagerOption {
	return func(m *Manager) {
		if handler == nil {
			return
		}
		m.inputHandler = handler
	}
}

// WithPrivilegeAcquirer sets how elevated access is obtained.
func WithPrivilegeAcquirer(fn PrivilegeAcquirer) ManagerOption {
	return func(m *Manager) {
		m.acquire = fn
	}
}

// WithCheckOnly evaluates guards without applying anything.
func WithCheckOnly() ManagerOption {
	return func(m *Manager) {
		m.checkOnly = true
	}
}

// NewManager constructs a Manager dispatching into reg.
func NewManager(reg *Registry, opts ...ManagerOption) *Manager {
	m := &Manager{registry: reg}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(m)
	}
	return m
}

// Report collects the results of a run in execution order.
type Report struct {
	Results []Result
}

// Count returns how many steps finished with the given outcome.
func (r Report) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Warnings flattens every warning in the report.
func (r Report) Warnings() []Warning {
	var out []Warning
	for _, res := range r.Results {
		out = append(out, res.Warnings...)
	}
	return out
}

// Run executes the selected steps sequentially, stopping at the first fatal failure.
func (m *Manager) Run(ctx context.Context, env *Env, sel Selection) (Report, error) {
	var report Report
	if env == nil {
		return report, ValidationError{Reason: "execution environment is required"}
	}

	if !m.checkOnly && sel.RequiresPrivilege(m.registry) {
		m.acquirePrivilege(ctx, env)
	}

	for _, id := range sel.IDs {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("run interrupted before step %s: %w", id, err)
		}
		step, ok := m.registry.Lookup(id)
		if !ok {
			return report, DispatchError{ID: id}
		}
		res := m.execute(ctx, env, step)
		report.Results = append(report.Results, res)
		if res.Err != nil {
			return report, StepExecutionError{Step: res.Meta, Err: res.Err}
		}
	}
	return report, nil
}

func (m *Manager) execute(ctx context.Context, env *Env, step Step) Result {
	meta := step.Metadata()
	res := Result{Meta: meta}

	m.notifyStart(meta)
	env.setWarningSink(func(w Warning) {
		res.Warnings = append(res.Warnings, w)
		m.notifyWarning(meta, w)
	})
	res.Outcome, res.Err = m.runStep(ctx, env, step, meta)
	env.setWarningSink(nil)

	if res.Outcome == OutcomeApplied && len(res.Warnings) > 0 {
		res.Outcome = OutcomeWarned
	}
	m.notifyComplete(res)
	return res
}

func (m *Manager) runStep(ctx context.Context, env *Env, step Step, meta Metadata) (Outcome, error) {
	satisfied, err := step.Satisfied(ctx, env)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("check state: %w", err)
	}
	if satisfied {
		logger.Infof("%s: already satisfied", meta.ID)
		return OutcomeSkipped, nil
	}
	if m.checkOnly {
		return OutcomePending, nil
	}
	if meta.Privileged {
		if _, err := env.Privileged(meta); err != nil {
			return OutcomeFailed, err
		}
	}

	logger.Infof("%s: applying", meta.ID)
	if err := step.Apply(ctx, env); err != nil {
		return OutcomeFailed, err
	}
	return OutcomeApplied, nil
}

func (m *Manager) acquirePrivilege(ctx context.Context, env *Env) {
	if env.PrivilegeResolved() || m.acquire == nil {
		return
	}

	input := ""
	for attempt := 0; ; attempt++ {
		runner, err := m.acquire(ctx, input)
		if err == nil {
			env.SetPrivileged(runner, nil)
			return
		}

		var inputErr InputRequestError
		if !errors.As(err, &inputErr) || m.inputHandler == nil || attempt >= maxInputAttempts {
			logger.Warningf("elevated privileges unavailable: %v", err)
			env.SetPrivileged(nil, err)
			return
		}

		value, handlerErr := m.inputHandler.RequestInput(PrivilegeMetadata, inputErr.Input, inputErr.Reason)
		if handlerErr != nil {
			env.SetPrivileged(nil, handlerErr)
			return
		}
		input = value
	}
}

func (m *Manager) notifyStart(meta Metadata) {
	for _, obs := range m.observers {
		obs.StepStarted(meta)
	}
}

func (m *Manager) notifyWarning(meta Metadata, w Warning) {
	for _, obs := range m.observers {
		obs.StepWarned(meta, w)
	}
}

func (m *Manager) notifyComplete(res Result) {
	for _, obs := range m.observers {
		obs.StepCompleted(res)
	}
}
