// Package prefs remembers UI state between runs: the theme and the card that
// had focus. The file lives at ~/.config/tminus/prefs.toml unless overridden.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/tminus/internal/config"
)

// DefaultTheme is used when no preference is stored.
const DefaultTheme = "Nightfox"

const defaultPrefsPath = "~/.config/tminus/prefs.toml"

type Prefs struct {
	Theme    string `toml:"theme"`
	Selected string `toml:"selected,omitempty"` // card id
}

// Defaults returns the preferences used before anything is saved.
func Defaults() Prefs {
	return Prefs{Theme: DefaultTheme}
}

// DefaultPath returns the preferences file used when none is given.
func DefaultPath() string {
	return defaultPrefsPath
}

func (p Prefs) normalized() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = DefaultTheme
	}
	p.Selected = strings.TrimSpace(p.Selected)
	return p
}

// Load reads the preferences at path. A missing file is not an error. An
// unreadable or corrupt file yields the defaults together with the error so
// the caller can log it and carry on.
func Load(path string) (Prefs, error) {
	file, err := location(path)
	if err != nil {
		return Defaults(), err
	}

	data, err := os.ReadFile(file)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return Defaults(), nil
	case err != nil:
		return Defaults(), fmt.Errorf("read prefs: %w", err)
	}

	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return Defaults(), fmt.Errorf("parse prefs %s: %w", file, err)
	}
	return p.normalized(), nil
}

// Save writes p to path. The file is replaced atomically so a crash mid-write
// leaves the previous preferences intact.
func Save(path string, p Prefs) error {
	file, err := location(path)
	if err != nil {
		return err
	}
	data, err := toml.Marshal(p.normalized())
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}

	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("create temp prefs: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), file); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func location(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	file, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("resolve prefs path: %w", err)
	}
	return file, nil
}
