package config

import (
	"fmt"
	"strings"
)

// LoadError wraps failures reading or decoding a config file.
type LoadError struct {
	Path string
	Err  error
}

func (e LoadError) Error() string {
	return fmt.Sprintf("load config %s: %v", e.Path, e.Err)
}

func (e LoadError) Unwrap() error {
	return e.Err
}

// FormatError indicates an unsupported config file extension.
type FormatError struct {
	Path string
}

func (e FormatError) Error() string {
	return fmt.Sprintf("unsupported config format %q (want .yaml, .yml or .toml)", e.Path)
}

// ValidationError collects every problem found by Validate.
type ValidationError struct {
	Problems []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s", strings.Join(e.Problems, "; "))
}
