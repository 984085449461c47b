// Package fonts installs Nerd Fonts into the user's font directory.
package fonts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BrianJOC/workstation-bootstrap/config"
	"github.com/BrianJOC/workstation-bootstrap/steps"
	"github.com/BrianJOC/workstation-bootstrap/utils/fetch"
)

const (
	stepID = "fonts"

	ActionDownload = "download"
	ActionCache    = "cache"
)

// Step downloads each configured font family.
type Step struct {
	cfg config.Fonts
}

// New creates the fonts step.
func New(cfg config.Fonts) *Step {
	return &Step{cfg: cfg}
}

// Metadata implements steps.Step.
func (s *Step) Metadata() steps.Metadata {
	return steps.Metadata{
		ID:          stepID,
		Title:       "Fonts",
		Description: fmt.Sprintf("Install Nerd Fonts %s: %s.", s.cfg.Version, strings.Join(s.cfg.Names, ", ")),
		Actions: []steps.Action{
			steps.Optional(ActionDownload, "download and unpack a font family"),
			steps.Optional(ActionCache, "rebuild the font cache"),
		},
	}
}

// Satisfied reports whether every font is unpacked or failed to download in
// an earlier run.
func (s *Step) Satisfied(_ context.Context, env *steps.Env) (bool, error) {
	for _, name := range s.cfg.Names {
		if env.Attempted(stepID, name) {
			continue
		}
		ok, err := present(s.fontDir(env, name))
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Apply downloads the missing fonts and rebuilds the cache once.
func (s *Step) Apply(ctx context.Context, env *steps.Env) error {
	meta := s.Metadata()

	installed := 0
	for _, name := range s.cfg.Names {
		dir := s.fontDir(env, name)
		if ok, _ := present(dir); ok {
			continue
		}
		var done bool
		if err := env.PerformItem(meta, ActionDownload, name, func() error {
			url := config.Expand(s.cfg.URL, map[string]string{"version": s.cfg.Version, "name": name})
			archive := filepath.Join(env.DownloadDir(), name+".zip")
			if err := fetch.Download(ctx, env.Runner, url, archive); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if err := fetch.Extract(ctx, env.Runner, archive, dir, 0); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			done = true
			return nil
		}); err != nil {
			return err
		}
		if done {
			installed++
		}
	}
	if installed == 0 {
		return nil
	}

	return env.Perform(meta, ActionCache, func() error {
		return env.FontCache.Do(func() error {
			if _, stderr, err := env.Runner.Run(ctx, "fc-cache -f"); err != nil {
				return fmt.Errorf("fc-cache: %w: %s", err, strings.TrimSpace(stderr))
			}
			return nil
		})
	})
}

func (s *Step) fontDir(env *steps.Env, name string) string {
	return env.HomePath(filepath.Join(s.cfg.Dir, name))
}

// present reports whether dir exists and holds at least one entry.
func present(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}
