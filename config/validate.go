package config

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/mod/semver"
)

// Validate checks every value the steps rely on and reports all problems at once.
func (c *Config) Validate() error {
	v := &validator{}

	v.packages("cli.packages", c.CLI.Packages, true)
	v.packages("cli.optional", c.CLI.Optional, false)

	switch c.SSH.KeyType {
	case "ed25519", "rsa":
	default:
		v.addf("ssh.key_type %q must be ed25519 or rsa", c.SSH.KeyType)
	}
	if c.SSH.KeyType == "rsa" && c.SSH.Bits < 2048 {
		v.addf("ssh.bits must be >= 2048 for rsa keys")
	}

	v.packages("shell.packages", c.Shell.Packages, true)
	v.https("shell.oh_my_zsh_repo", c.Shell.OhMyZshRepo)
	v.relative("shell.oh_my_zsh_dir", c.Shell.OhMyZshDir)
	v.relative("shell.rc_file", c.Shell.RCFile)
	v.lines("shell.profile_lines", c.Shell.ProfileLines)
	if c.Shell.ChangeLoginShell && !strings.HasPrefix(c.Shell.LoginShell, "/") {
		v.addf("shell.login_shell must be an absolute path")
	}

	v.packages("wm.packages", c.WM.Packages, true)
	v.packages("wm.optional", c.WM.Optional, false)
	v.relative("wm.config_path", c.WM.ConfigPath)

	v.version("editor.version", c.Editor.Version)
	v.https("editor.url", c.Editor.URL)
	v.absolute("editor.install_dir", c.Editor.InstallDir)
	if c.Editor.ConfigRepo != "" {
		v.https("editor.config_repo", c.Editor.ConfigRepo)
	}
	v.relative("editor.config_dir", c.Editor.ConfigDir)
	v.lines("editor.profile_lines", c.Editor.ProfileLines)

	v.version("langs.go.version", c.Langs.Go.Version)
	v.https("langs.go.url", c.Langs.Go.URL)
	v.absolute("langs.go.install_dir", c.Langs.Go.InstallDir)
	if c.Langs.Rust.Enabled {
		v.https("langs.rust.installer_url", c.Langs.Rust.InstallerURL)
	}
	v.packages("langs.python.packages", c.Langs.Python.Packages, false)
	v.lines("langs.profile_lines", c.Langs.ProfileLines)

	v.version("fonts.version", c.Fonts.Version)
	v.https("fonts.url", c.Fonts.URL)
	v.relative("fonts.dir", c.Fonts.Dir)
	v.packages("fonts.names", c.Fonts.Names, true)

	v.packages("docker.prerequisites", c.Docker.Prerequisites, false)
	v.https("docker.repo_url", c.Docker.RepoURL)
	v.https("docker.key_url", c.Docker.KeyURL)
	v.packages("docker.components", c.Docker.Components, true)
	v.packages("docker.packages", c.Docker.Packages, true)
	if c.Docker.AddUserToGroup && strings.TrimSpace(c.Docker.Group) == "" {
		v.addf("docker.group is required when add_user_to_group is set")
	}

	v.packages("ansible.packages", c.Ansible.Packages, true)
	v.packages("ansible.playbooks", c.Ansible.Playbooks, false)

	if len(v.problems) > 0 {
		return ValidationError{Problems: v.problems}
	}
	return nil
}

type validator struct {
	problems []string
}

func (v *validator) addf(format string, args ...interface{}) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) packages(field string, names []string, required bool) {
	if required && len(names) == 0 {
		v.addf("%s must not be empty", field)
	}
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			v.addf("%s[%d] must not be empty", field, i)
		}
	}
}

func (v *validator) lines(field string, lines []string) {
	for i, line := range lines {
		if strings.TrimSpace(line) == "" || strings.ContainsAny(line, "\r\n") {
			v.addf("%s[%d] must be a single non-empty line", field, i)
		}
	}
}

func (v *validator) version(field, version string) {
	if !semver.IsValid("v" + strings.TrimPrefix(version, "v")) {
		v.addf("%s %q is not a semantic version", field, version)
	}
}

func (v *validator) https(field, raw string) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		v.addf("%s %q must be an https url", field, raw)
	}
}

func (v *validator) relative(field, path string) {
	if strings.TrimSpace(path) == "" || strings.HasPrefix(path, "/") {
		v.addf("%s %q must be a path relative to the home directory", field, path)
	}
}

func (v *validator) absolute(field, path string) {
	if !strings.HasPrefix(path, "/") {
		v.addf("%s %q must be an absolute path", field, path)
	}
}

// Expand substitutes {name} placeholders in a URL template.
func Expand(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, val := range values {
		pairs = append(pairs, "{"+k+"}", val)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
