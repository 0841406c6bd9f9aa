// Package config loads the per-project configuration (.nodetree/config.yaml)
// and locates projects on disk.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// StateDirName is the per-project directory holding config and view state.
const StateDirName = ".nodetree"

// ConfigFileName is the config file inside StateDirName.
const ConfigFileName = "config.yaml"

// Source kinds.
const (
	SourceSQLite = "sqlite"
	SourceJSONL  = "jsonl"
)

// Config represents a project configuration file (.nodetree/config.yaml)
type Config struct {
	// Name is the project display name (default: directory name)
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Source says where node records live
	Source SourceConfig `yaml:"source" json:"source"`

	// UI tunes the terminal browser
	UI UIConfig `yaml:"ui,omitempty" json:"ui,omitempty"`

	// Watch controls live reload of the source
	Watch WatchConfig `yaml:"watch,omitempty" json:"watch,omitempty"`
}

// SourceConfig selects the snapshot source.
type SourceConfig struct {
	// Kind is "sqlite" (read/write) or "jsonl" (read-only snapshot file)
	Kind string `yaml:"kind" json:"kind"`

	// Path is relative to the project root unless absolute
	Path string `yaml:"path" json:"path"`
}

// UIConfig holds browser settings.
type UIConfig struct {
	// PageSize is the PgUp/PgDn jump; 0 means one screen
	PageSize int `yaml:"page_size,omitempty" json:"page_size,omitempty"`

	// ShowOrder appends each node's order value to its row
	ShowOrder bool `yaml:"show_order,omitempty" json:"show_order,omitempty"`
}

// WatchConfig controls reload on source changes.
type WatchConfig struct {
	// Enabled turns on file watching (default: true)
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	// DebounceMS coalesces bursts of writes (default: 200)
	DebounceMS int `yaml:"debounce_ms,omitempty" json:"debounce_ms,omitempty"`
}

// DefaultDebounceMS is used when watch.debounce_ms is unset.
const DefaultDebounceMS = 200

// DefaultConfig returns the configuration written by `nt init`.
func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			Kind: SourceSQLite,
			Path: filepath.Join(StateDirName, "nodes.db"),
		},
		Watch: WatchConfig{DebounceMS: DefaultDebounceMS},
	}
}

// IsEnabled returns whether watching is on
func (w WatchConfig) IsEnabled() bool {
	if w.Enabled == nil {
		return true
	}
	return *w.Enabled
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceSQLite, SourceJSONL:
	default:
		return fmt.Errorf("source.kind must be %q or %q, got %q", SourceSQLite, SourceJSONL, c.Source.Kind)
	}
	if strings.TrimSpace(c.Source.Path) == "" {
		return fmt.Errorf("source.path is required")
	}
	if c.UI.PageSize < 0 {
		return fmt.Errorf("ui.page_size cannot be negative")
	}
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms cannot be negative")
	}
	return nil
}

// ResolvedSourcePath returns the source path joined to the project root.
func (c *Config) ResolvedSourcePath(root string) string {
	p := expandHome(c.Source.Path)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// DisplayName returns Name or, if unset, the root directory name.
func (c *Config) DisplayName(root string) string {
	if c.Name != "" {
		return c.Name
	}
	return filepath.Base(root)
}

// LoadConfig loads a project configuration from a file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing project config: %w", err)
	}

	if config.Source.Kind == "" {
		config.Source.Kind = SourceSQLite
	}
	if config.Watch.DebounceMS == 0 {
		config.Watch.DebounceMS = DefaultDebounceMS
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project config: %w", err)
	}
	return &config, nil
}

// SaveConfig writes cfg as YAML to path, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid project config: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding project config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ConfigPath returns the config file location for a project root.
func ConfigPath(root string) string {
	return filepath.Join(root, StateDirName, ConfigFileName)
}

// StateDir returns the state directory for a project root.
func StateDir(root string) string {
	return filepath.Join(root, StateDirName)
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
