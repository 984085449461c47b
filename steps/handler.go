package steps

// InputHandler resolves InputRequestError instances by collecting values from the operator or another system.
type InputHandler interface {
	RequestInput(meta Metadata, input InputDefinition, reason string) (string, error)
}

// InputHandlerFunc adapts a function into an InputHandler.
type InputHandlerFunc func(meta Metadata, input InputDefinition, reason string) (string, error)

// RequestInput implements InputHandler.
func (f InputHandlerFunc) RequestInput(meta Metadata, input InputDefinition, reason string) (string, error) {
	return f(meta, input, reason)
}
