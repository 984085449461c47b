package steps

// Registry is the ordered set of steps known to the runner.
type Registry struct {
	steps []Step
	index map[string]Step
}

// NewRegistry constructs a Registry and registers the provided steps in order.
func NewRegistry(steps ...Step) (*Registry, error) {
	r := &Registry{index: make(map[string]Step)}
	if err := r.Register(steps...); err != nil {
		return nil, err
	}
	return r, nil
}

// Register appends steps, returning an error on empty, reserved, or duplicate IDs.
func (r *Registry) Register(steps ...Step) error {
	if r.index == nil {
		r.index = make(map[string]Step)
	}
	for _, s := range steps {
		if s == nil {
			continue
		}
		meta := s.Metadata()
		if meta.ID == "" {
			return ValidationError{Reason: "step id must not be empty"}
		}
		if meta.ID == AllKeyword {
			return ValidationError{Reason: "step id " + AllKeyword + " is reserved"}
		}
		if _, exists := r.index[meta.ID]; exists {
			return DuplicateStepError{ID: meta.ID}
		}
		r.index[meta.ID] = s
		r.steps = append(r.steps, s)
	}
	return nil
}

// Lookup returns the step registered under id.
func (r *Registry) Lookup(id string) (Step, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.index[id]
	return s, ok
}

// Names returns every registered ID in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.steps))
	for _, s := range r.steps {
		names = append(names, s.Metadata().ID)
	}
	return names
}

// Steps returns a copy of the registered steps in order.
func (r *Registry) Steps() []Step {
	if r == nil {
		return nil
	}
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Len reports how many steps are registered.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.steps)
}
