// Package config loads ffind's configuration file. Config values are
// only default Query fields: every one of them can be overridden per
// call by query modifiers.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ColorMode controls when list output is colorized.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config represents ffind configuration options
type Config struct {
	// Limit is the default maximum number of results (0 = unbounded)
	Limit int `yaml:"limit"`

	// Timeout is the default wall-clock budget per search (0 = unbounded)
	Timeout time.Duration `yaml:"timeout"`

	// ShowHidden includes hidden files by default
	ShowHidden bool `yaml:"show_hidden"`

	// Color is one of auto, always, never
	Color string `yaml:"color"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Limit:      20,
		Timeout:    0,
		ShowHidden: false,
		Color:      ColorAuto,
	}
}

// DefaultPath returns the expected config file location,
// e.g. ~/.config/ffind/config.yaml on Linux.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ffind", "config.yaml")
}

// Load reads configuration from the given path. A missing file returns
// defaults without error; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Timeout is written as a human duration string ("2s", "500ms"),
	// so parse through a shadow struct.
	type yamlConfig struct {
		Limit      *int    `yaml:"limit"`
		Timeout    *string `yaml:"timeout"`
		ShowHidden *bool   `yaml:"show_hidden"`
		Color      *string `yaml:"color"`
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if raw.Limit != nil {
		if *raw.Limit < 0 {
			return nil, fmt.Errorf("invalid limit %d: must be non-negative", *raw.Limit)
		}
		cfg.Limit = *raw.Limit
	}
	if raw.Timeout != nil && *raw.Timeout != "" {
		d, err := time.ParseDuration(*raw.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", *raw.Timeout, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("invalid timeout %q: must be non-negative", *raw.Timeout)
		}
		cfg.Timeout = d
	}
	if raw.ShowHidden != nil {
		cfg.ShowHidden = *raw.ShowHidden
	}
	if raw.Color != nil {
		switch *raw.Color {
		case ColorAuto, ColorAlways, ColorNever:
			cfg.Color = *raw.Color
		default:
			return nil, fmt.Errorf("invalid color %q: must be auto, always or never", *raw.Color)
		}
	}

	return cfg, nil
}
