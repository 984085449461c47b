package steps

// InputDefinition describes data the runner requires from the operator/UI.
type InputDefinition struct {
	ID          string
	Label       string
	Description string
	Kind        InputKind
	Required    bool
	Secret      bool
}

// InputKind identifies how an input should be rendered.
type InputKind string

const (
	InputKindText   InputKind = "text"
	InputKindSecret InputKind = "secret"
)

// SecretInput builds a secret/password input definition.
func SecretInput(id, label, description string) InputDefinition {
	return InputDefinition{
		ID:          id,
		Label:       label,
		Description: description,
		Kind:        InputKindSecret,
		Secret:      true,
		Required:    true,
	}
}
