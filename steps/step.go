package steps

import "context"

// Step represents a single named, idempotent unit of provisioning work.
//
// Satisfied is the idempotence guard: it must be read-only and report true
// when the step's end state already exists. Apply performs the work and must
// itself tolerate partially applied state left behind by an earlier run.
type Step interface {
	Metadata() Metadata
	Satisfied(ctx context.Context, env *Env) (bool, error)
	Apply(ctx context.Context, env *Env) error
}

// Metadata contains descriptive information used by the runner and presentation layers.
type Metadata struct {
	ID          string
	Title       string
	Description string
	// Privileged steps require the elevated runner; the manager acquires it
	// before the first step runs when any selected step sets this.
	Privileged bool
	// Actions lists every sub-action the step performs together with its
	// failure policy. Env.Perform refuses actions that are not declared here.
	Actions []Action
}

// Action returns the declared action with the given ID.
func (m Metadata) Action(id string) (Action, bool) {
	for _, a := range m.Actions {
		if a.ID == id {
			return a, true
		}
	}
	return Action{}, false
}

// Policy classifies how a failing sub-action affects the run.
type Policy int

const (
	// PolicyRequired failures abort the run.
	PolicyRequired Policy = iota
	// PolicyOptional failures are reported as warnings and the step continues.
	PolicyOptional
)

func (p Policy) String() string {
	switch p {
	case PolicyRequired:
		return "required"
	case PolicyOptional:
		return "optional"
	default:
		return "unknown"
	}
}

// Action describes one sub-action of a step.
type Action struct {
	ID          string
	Description string
	Policy      Policy
}

// Required declares a sub-action whose failure is fatal.
func Required(id, description string) Action {
	return Action{ID: id, Description: description, Policy: PolicyRequired}
}

// Optional declares a sub-action whose failure only produces a warning.
func Optional(id, description string) Action {
	return Action{ID: id, Description: description, Policy: PolicyOptional}
}

// Outcome summarises what happened to a step during a run.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeSkipped
	OutcomeApplied
	OutcomeWarned
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeApplied:
		return "applied"
	case OutcomeWarned:
		return "warned"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Warning is a non-fatal problem reported by an optional action.
type Warning struct {
	StepID   string
	ActionID string
	Err      error
}

func (w Warning) String() string {
	return w.ActionID + ": " + w.Err.Error()
}

// Result reports the outcome of a single step.
type Result struct {
	Meta     Metadata
	Outcome  Outcome
	Warnings []Warning
	Err      error
}

// Observer receives lifecycle callbacks for each step.
type Observer interface {
	StepStarted(meta Metadata)
	StepWarned(meta Metadata, warning Warning)
	StepCompleted(result Result)
}

// ObserverFuncs adapts optional functions into an Observer.
type ObserverFuncs struct {
	OnStart    func(meta Metadata)
	OnWarning  func(meta Metadata, warning Warning)
	OnComplete func(result Result)
}

// StepStarted implements Observer.
func (o ObserverFuncs) StepStarted(meta Metadata) {
	if o.OnStart != nil {
		o.OnStart(meta)
	}
}

// StepWarned implements Observer.
func (o ObserverFuncs) StepWarned(meta Metadata, warning Warning) {
	if o.OnWarning != nil {
		o.OnWarning(meta, warning)
	}
}

// StepCompleted implements Observer.
func (o ObserverFuncs) StepCompleted(result Result) {
	if o.OnComplete != nil {
		o.OnComplete(result)
	}
}
