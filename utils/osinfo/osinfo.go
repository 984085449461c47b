// Package osinfo establishes host facts for a provisioning run.
package osinfo

import (
	"context"
	"os"
	"os/user"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/BrianJOC/workstation-bootstrap/utils/command"
)

// DefaultReleasePath is the standard os-release location.
const DefaultReleasePath = "/etc/os-release"

// Info holds the facts every step may read.
type Info struct {
	// ID is the os-release ID; Family is the apt distribution it follows.
	ID       string
	Family   string
	Codename string
	Arch     string
	User     string
	Home     string
}

// Release is the subset of os-release that provisioning cares about.
type Release struct {
	ID       string
	IDLike   string
	Codename string
}

// Family returns the upstream apt distribution: ubuntu for Ubuntu and its
// derivatives, debian otherwise.
func (r Release) Family() string {
	if r.ID == "ubuntu" {
		return "ubuntu"
	}
	for _, like := range strings.Fields(r.IDLike) {
		if like == "ubuntu" {
			return "ubuntu"
		}
	}
	return "debian"
}

// DebianLike reports whether apt-based steps can run on this release.
func (r Release) DebianLike() bool {
	if r.ID == "debian" || r.ID == "ubuntu" {
		return true
	}
	for _, like := range strings.Fields(r.IDLike) {
		if like == "debian" || like == "ubuntu" {
			return true
		}
	}
	return false
}

// Option configures Detect.
type Option func(*detectOptions)

type detectOptions struct {
	releasePath string
	getenv      func(string) string
	euid        func() int
	current     func() (*user.User, error)
}

// WithReleasePath overrides where os-release is read from.
func WithReleasePath(path string) Option {
	return func(o *detectOptions) {
		o.releasePath = path
	}
}

// WithUserLookup replaces the environment and user database used to find the
// invoking user.
func WithUserLookup(getenv func(string) string, euid func() int, current func() (*user.User, error)) Option {
	return func(o *detectOptions) {
		o.getenv, o.euid, o.current = getenv, euid, current
	}
}

// ReadRelease parses an os-release file.
func ReadRelease(path string) (Release, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return Release{}, ReleaseError{Path: path, Err: err}
	}
	sec := cfg.Section("")
	rel := Release{
		ID:       strings.ToLower(sec.Key("ID").String()),
		IDLike:   strings.ToLower(sec.Key("ID_LIKE").String()),
		Codename: sec.Key("UBUNTU_CODENAME").String(),
	}
	// Ubuntu derivatives carry their own VERSION_CODENAME; apt repositories
	// are keyed by the Ubuntu one.
	if rel.Codename == "" {
		rel.Codename = sec.Key("VERSION_CODENAME").String()
	}
	return rel, nil
}

// Detect reads the invoking user, the release and the dpkg architecture.
// Running under sudo is refused: every file and command would belong to root
// while the run targets SUDO_USER's home. Privileged steps acquire sudo
// themselves.
func Detect(ctx context.Context, r command.Runner, opts ...Option) (Info, error) {
	cfg := detectOptions{
		releasePath: DefaultReleasePath,
		getenv:      os.Getenv,
		euid:        os.Geteuid,
		current:     user.Current,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	u, err := invokingUser(cfg)
	if err != nil {
		return Info{}, err
	}

	rel, err := ReadRelease(cfg.releasePath)
	if err != nil {
		return Info{}, err
	}
	if !rel.DebianLike() {
		return Info{}, UnsupportedError{ID: rel.ID, IDLike: rel.IDLike}
	}

	stdout, stderr, err := r.Run(ctx, "dpkg --print-architecture")
	if err != nil {
		return Info{}, ArchError{Err: err, Stderr: stderr}
	}

	return Info{
		ID:       rel.ID,
		Family:   rel.Family(),
		Codename: rel.Codename,
		Arch:     strings.TrimSpace(stdout),
		User:     u.Username,
		Home:     u.HomeDir,
	}, nil
}

func invokingUser(cfg detectOptions) (*user.User, error) {
	if cfg.euid() == 0 {
		if name := strings.TrimSpace(cfg.getenv("SUDO_USER")); name != "" && name != "root" {
			return nil, SudoInvocationError{User: name}
		}
	}
	u, err := cfg.current()
	if err != nil {
		return nil, UserError{Err: err}
	}
	return u, nil
}
