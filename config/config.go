// Package config holds the provisioning data (package lists, pinned versions,
// URLs, profile lines) consumed by the component steps.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the full provisioning configuration.
type Config struct {
	CLI     CLI     `yaml:"cli" toml:"cli"`
	SSH     SSH     `yaml:"ssh" toml:"ssh"`
	Shell   Shell   `yaml:"shell" toml:"shell"`
	WM      WM      `yaml:"wm" toml:"wm"`
	Editor  Editor  `yaml:"editor" toml:"editor"`
	Langs   Langs   `yaml:"langs" toml:"langs"`
	Fonts   Fonts   `yaml:"fonts" toml:"fonts"`
	Docker  Docker  `yaml:"docker" toml:"docker"`
	Ansible Ansible `yaml:"ansible" toml:"ansible"`
}

// CLI lists command-line tool packages.
type CLI struct {
	Packages []string `yaml:"packages" toml:"packages"`
	Optional []string `yaml:"optional" toml:"optional"`
}

// SSH configures the user key pair.
type SSH struct {
	KeyType string `yaml:"key_type" toml:"key_type"`
	Bits    int    `yaml:"bits" toml:"bits"`
	Comment string `yaml:"comment" toml:"comment"`
}

// Shell configures zsh and oh-my-zsh.
type Shell struct {
	Packages         []string `yaml:"packages" toml:"packages"`
	OhMyZshRepo      string   `yaml:"oh_my_zsh_repo" toml:"oh_my_zsh_repo"`
	OhMyZshDir       string   `yaml:"oh_my_zsh_dir" toml:"oh_my_zsh_dir"`
	RCFile           string   `yaml:"rc_file" toml:"rc_file"`
	ProfileLines     []string `yaml:"profile_lines" toml:"profile_lines"`
	LoginShell       string   `yaml:"login_shell" toml:"login_shell"`
	ChangeLoginShell bool     `yaml:"change_login_shell" toml:"change_login_shell"`
}

// WM configures the window manager.
type WM struct {
	Packages      []string `yaml:"packages" toml:"packages"`
	Optional      []string `yaml:"optional" toml:"optional"`
	DefaultConfig string   `yaml:"default_config" toml:"default_config"`
	ConfigPath    string   `yaml:"config_path" toml:"config_path"`
}

// Editor configures the Neovim release install.
type Editor struct {
	Version      string   `yaml:"version" toml:"version"`
	URL          string   `yaml:"url" toml:"url"`
	InstallDir   string   `yaml:"install_dir" toml:"install_dir"`
	ConfigRepo   string   `yaml:"config_repo" toml:"config_repo"`
	ConfigBranch string   `yaml:"config_branch" toml:"config_branch"`
	ConfigDir    string   `yaml:"config_dir" toml:"config_dir"`
	ProfileLines []string `yaml:"profile_lines" toml:"profile_lines"`
}

// Langs configures language toolchains.
type Langs struct {
	Go           GoToolchain `yaml:"go" toml:"go"`
	Rust         Rust        `yaml:"rust" toml:"rust"`
	Python       Python      `yaml:"python" toml:"python"`
	ProfileLines []string    `yaml:"profile_lines" toml:"profile_lines"`
}

// GoToolchain pins the Go release.
type GoToolchain struct {
	Version    string `yaml:"version" toml:"version"`
	URL        string `yaml:"url" toml:"url"`
	InstallDir string `yaml:"install_dir" toml:"install_dir"`
}

// Rust configures rustup.
type Rust struct {
	Enabled      bool   `yaml:"enabled" toml:"enabled"`
	InstallerURL string `yaml:"installer_url" toml:"installer_url"`
}

// Python lists Python tooling packages.
type Python struct {
	Packages []string `yaml:"packages" toml:"packages"`
}

// Fonts configures Nerd Font downloads.
type Fonts struct {
	Version string   `yaml:"version" toml:"version"`
	URL     string   `yaml:"url" toml:"url"`
	Dir     string   `yaml:"dir" toml:"dir"`
	Names   []string `yaml:"names" toml:"names"`
}

// Docker configures the Docker apt repository and engine.
type Docker struct {
	Prerequisites  []string `yaml:"prerequisites" toml:"prerequisites"`
	RepoURL        string   `yaml:"repo_url" toml:"repo_url"`
	KeyURL         string   `yaml:"key_url" toml:"key_url"`
	Components     []string `yaml:"components" toml:"components"`
	Packages       []string `yaml:"packages" toml:"packages"`
	Group          string   `yaml:"group" toml:"group"`
	AddUserToGroup bool     `yaml:"add_user_to_group" toml:"add_user_to_group"`
	EnableService  bool     `yaml:"enable_service" toml:"enable_service"`
}

// Ansible configures local playbook runs.
type Ansible struct {
	Packages  []string          `yaml:"packages" toml:"packages"`
	Playbooks []string          `yaml:"playbooks" toml:"playbooks"`
	Become    bool              `yaml:"become" toml:"become"`
	ExtraVars map[string]string `yaml:"extra_vars" toml:"extra_vars"`
}

// Default returns the embedded defaults.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, LoadError{Path: "defaults.yaml", Err: err}
	}
	return cfg, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/bootstrap/config.yaml (or the
// platform equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "bootstrap", "config.yaml"), nil
}

// Load returns the defaults overlaid with the file at path. An empty path
// falls back to DefaultPath when that file exists. Keys absent from the
// file keep their default value; lists present in the file replace the
// default list.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path, err = DefaultPath()
		if err != nil {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, LoadError{Path: path, Err: err}
	}

	if err := overlay(cfg, path, data); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overlay(cfg *Config, path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return LoadError{Path: path, Err: err}
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return LoadError{Path: path, Err: err}
		}
	default:
		return FormatError{Path: path}
	}
	return nil
}
