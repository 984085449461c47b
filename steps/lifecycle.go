package steps

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Runner lifecycle states.
const (
	StateParsing    = "parsing"
	StateValidating = "validating"
	StateExecuting  = "executing"
	StateDone       = "done"
	StateAborted    = "aborted"
)

// Runner lifecycle events.
const (
	EventParsed    = "PARSED"
	EventValidated = "VALIDATED"
	EventRejected  = "REJECTED"
	EventExit      = "EXIT"
	EventFinished  = "FINISHED"
	EventFailed    = "FAILED"
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitDispatch = 2
)

// LifecycleContext is the statekit context carried through a run.
type LifecycleContext struct {
	RunID string
}

// Lifecycle tracks one invocation through
// parsing → validating → executing → done|aborted and derives its exit code.
type Lifecycle struct {
	interp   *statekit.Interpreter[LifecycleContext]
	exitCode int
	err      error
}

// NewLifecycle builds and starts the run state machine.
func NewLifecycle(runID string) (*Lifecycle, error) {
	machine, err := statekit.NewMachine[LifecycleContext]("bootstrap-run").
		WithInitial(StateParsing).
		WithContext(LifecycleContext{RunID: runID}).
		WithAction("logAborted", func(c *LifecycleContext, e statekit.Event) {
			logger.Debugf("run %s aborted on %s", c.RunID, e.Type)
		}).
		WithAction("logDone", func(c *LifecycleContext, _ statekit.Event) {
			logger.Debugf("run %s done", c.RunID)
		}).
		State(StateParsing).
		On(EventParsed).Target(StateValidating).
		On(EventRejected).Target(StateAborted).
		On(EventExit).Target(StateAborted).Done().
		State(StateValidating).
		On(EventValidated).Target(StateExecuting).
		On(EventRejected).Target(StateAborted).
		On(EventExit).Target(StateAborted).Done().
		State(StateExecuting).
		On(EventFinished).Target(StateDone).
		On(EventFailed).Target(StateAborted).Done().
		State(StateDone).
		OnEntry("logDone").Done().
		State(StateAborted).
		OnEntry("logAborted").Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("build run state machine: %w", err)
	}

	interp := statekit.NewInterpreter(machine)
	interp.Start()
	return &Lifecycle{interp: interp}, nil
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() string {
	return string(l.interp.State().Value)
}

// Parsed marks raw arguments as parsed.
func (l *Lifecycle) Parsed() {
	l.send(EventParsed)
}

// Validated marks the selection as valid; execution may begin.
func (l *Lifecycle) Validated() {
	l.send(EventValidated)
}

// Exit ends the run successfully before execution (help, list).
func (l *Lifecycle) Exit() {
	l.exitCode = ExitOK
	l.send(EventExit)
}

// Reject aborts the run on invalid input.
func (l *Lifecycle) Reject(err error) {
	l.err = err
	l.exitCode = ExitFailure
	l.send(EventRejected)
}

// Finish records the result of execution.
func (l *Lifecycle) Finish(err error) {
	if err == nil {
		l.exitCode = ExitOK
		l.send(EventFinished)
		return
	}
	l.err = err
	l.exitCode = ExitFailure
	var dispatchErr DispatchError
	if errors.As(err, &dispatchErr) {
		l.exitCode = ExitDispatch
	}
	l.send(EventFailed)
}

// ExitCode returns the process status for the current outcome.
func (l *Lifecycle) ExitCode() int {
	return l.exitCode
}

// Err returns the error that aborted the run, if any.
func (l *Lifecycle) Err() error {
	return l.err
}

// Stop releases the interpreter.
func (l *Lifecycle) Stop() {
	l.interp.Stop()
}

func (l *Lifecycle) send(event string) {
	l.interp.Send(statekit.Event{Type: statekit.EventType(event)})
}
