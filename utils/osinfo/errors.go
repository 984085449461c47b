package osinfo

import (
	"fmt"
	"strings"
)

// ReleaseError wraps failures reading the os-release file.
type ReleaseError struct {
	Path string
	Err  error
}

func (e ReleaseError) Error() string {
	return fmt.Sprintf("read %s failed: %v", e.Path, e.Err)
}

func (e ReleaseError) Unwrap() error {
	return e.Err
}

// UnsupportedError indicates the host is not Debian-like.
type UnsupportedError struct {
	ID     string
	IDLike string
}

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported distribution %q (ID_LIKE=%q)", e.ID, e.IDLike)
}

// ArchError wraps dpkg architecture detection failures.
type ArchError struct {
	Err    error
	Stderr string
}

func (e ArchError) Error() string {
	return fmt.Sprintf("detect architecture failed: %v (%s)", e.Err, strings.TrimSpace(e.Stderr))
}

func (e ArchError) Unwrap() error {
	return e.Err
}

// UserError wraps failures resolving the invoking user.
type UserError struct {
	Err error
}

func (e UserError) Error() string {
	return fmt.Sprintf("resolve current user failed: %v", e.Err)
}

func (e UserError) Unwrap() error {
	return e.Err
}

// SudoInvocationError indicates the process was started through sudo.
type SudoInvocationError struct {
	User string
}

func (e SudoInvocationError) Error() string {
	return fmt.Sprintf("run bootstrap as %s without sudo; it asks for the sudo password when a component needs root", e.User)
}
