package steps

import "context"

// CheckFunc reports whether a step's end state already exists.
type CheckFunc func(ctx context.Context, env *Env) (bool, error)

// ApplyFunc performs a step's work.
type ApplyFunc func(ctx context.Context, env *Env) error

// FuncStep lets callers define steps with a metadata struct and functions
// instead of declaring a custom type for every step.
type FuncStep struct {
	meta  Metadata
	check CheckFunc
	apply ApplyFunc
}

// NewFuncStep constructs a FuncStep, panicking if metadata is missing an ID or
// apply is nil. A nil check means the step is never considered satisfied.
func NewFuncStep(meta Metadata, check CheckFunc, apply ApplyFunc) *FuncStep {
	if meta.ID == "" {
		panic("steps: func step metadata must include an ID")
	}
	if apply == nil {
		panic("steps: func step requires an apply function")
	}
	return &FuncStep{meta: meta, check: check, apply: apply}
}

// Metadata returns the definition supplied at construction time.
func (s *FuncStep) Metadata() Metadata {
	return s.meta
}

// Satisfied calls the CheckFunc provided to NewFuncStep.
func (s *FuncStep) Satisfied(ctx context.Context, env *Env) (bool, error) {
	if s.check == nil {
		return false, nil
	}
	return s.check(ctx, env)
}

// Apply calls the ApplyFunc provided to NewFuncStep.
func (s *FuncStep) Apply(ctx context.Context, env *Env) error {
	return s.apply(ctx, env)
}
