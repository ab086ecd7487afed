// Package config handles loading and saving pj configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/pj/config.yaml
//   - Data:    ~/.local/share/pj/ (themes)
//   - State:   ~/.local/state/pj/ (view state cache)
//
// Pin state lives here, in the sidecar config, never in the editors'
// own databases: those stay a read-only source of truth for recency.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// UIConfig holds UI preference settings.
type UIConfig struct {
	ShowPaths   bool   `yaml:"show_paths,omitempty"`   // Show full paths next to labels
	ShowMissing *bool  `yaml:"show_missing,omitempty"` // Show pinned projects whose path is gone (default true)
	Theme       string `yaml:"theme,omitempty"`
}

// Config is the top-level configuration for pj.
type Config struct {
	// DefaultIDE is the editor used for open/new when several are installed
	DefaultIDE string `yaml:"default_ide,omitempty"`
	// Pinned are project paths forced to the top of the list
	Pinned []string `yaml:"pinned,omitempty"`
	// ProjectsRoot is where new projects are created
	ProjectsRoot string `yaml:"projects_root,omitempty"`
	// Terminal overrides terminal auto-detection (konsole, kitty, ...)
	Terminal string   `yaml:"terminal,omitempty"`
	UI       UIConfig `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UI: UIConfig{
			ShowPaths: true,
		},
	}
}

// ConfigDir returns the XDG config directory for pj.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "pj")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "pj")
}

// DataDir returns the XDG data directory for pj.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "pj")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "pj")
}

// StateDir returns the XDG state directory for pj.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "pj")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "pj")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	// Expand ~ in stored paths
	for i := range cfg.Pinned {
		cfg.Pinned[i] = expandHome(cfg.Pinned[i])
	}
	cfg.ProjectsRoot = expandHome(cfg.ProjectsRoot)

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// IsPinned reports whether a path is in the pin set.
func (c Config) IsPinned(path string) bool {
	return slices.Contains(c.Pinned, path)
}

// TogglePin adds or removes a path from the pin set and reports the new
// pinned state.
func (c *Config) TogglePin(path string) bool {
	if i := slices.Index(c.Pinned, path); i >= 0 {
		c.Pinned = slices.Delete(c.Pinned, i, i+1)
		return false
	}
	c.Pinned = append(c.Pinned, path)
	return true
}

// Unpin removes a path from the pin set if present.
func (c *Config) Unpin(path string) {
	if i := slices.Index(c.Pinned, path); i >= 0 {
		c.Pinned = slices.Delete(c.Pinned, i, i+1)
	}
}

// ShowMissing reports whether pinned projects with a missing path are shown.
func (c Config) ShowMissing() bool {
	if c.UI.ShowMissing == nil {
		return true
	}
	return *c.UI.ShowMissing
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
