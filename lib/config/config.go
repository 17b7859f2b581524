// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the snapdbg CLI.
//
// Configuration is loaded from a single YAML file, located by:
//   - SNAPDBG_CONFIG environment variable, or
//   - the default path ~/.config/snapdbg/config.yaml
//
// Command-line flags override file values; the file exists so operators
// do not have to repeat --database_url and --debuggee_id on every
// invocation. `snapdbg init` writes it.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the persisted CLI configuration.
type Config struct {
	// DatabaseURL is the base URL of the snapshot database
	// (e.g. "https://my-project-cdbg.firebaseio.com").
	DatabaseURL string `yaml:"database_url"`

	// AccountEmail identifies the operator. It is recorded on created
	// snapshots and drives the default filtering of list and delete.
	AccountEmail string `yaml:"account_email"`

	// DefaultDebuggeeID is used when --debuggee_id is not given.
	DefaultDebuggeeID string `yaml:"default_debuggee_id,omitempty"`

	// Format is the default output format: default, json or
	// pretty-json.
	Format string `yaml:"format,omitempty"`

	// Emulator configures the local database emulator.
	Emulator EmulatorConfig `yaml:"emulator,omitempty"`
}

// EmulatorConfig configures `snapdbg emulator`.
type EmulatorConfig struct {
	// Listen is the address the emulator serves on.
	// Default: 127.0.0.1:9000
	Listen string `yaml:"listen,omitempty"`

	// PersistPath, when set, names a SQLite file the emulator persists
	// its tree to. Supports ${HOME} expansion.
	PersistPath string `yaml:"persist_path,omitempty"`
}

// Default returns the base configuration file values start from.
func Default() *Config {
	return &Config{
		Format: "default",
		Emulator: EmulatorConfig{
			Listen: "127.0.0.1:9000",
		},
	}
}

// DefaultPath returns the path used when SNAPDBG_CONFIG is not set.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(configDir, "snapdbg", "config.yaml"), nil
}

// Path returns the config file location: SNAPDBG_CONFIG when set,
// otherwise the default path.
func Path() (string, error) {
	if path := os.Getenv("SNAPDBG_CONFIG"); path != "" {
		return path, nil
	}
	return DefaultPath()
}

// Load reads the configuration from the resolved path. A missing file
// is not an error: commands that received everything through flags work
// without one, so the defaults are returned.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, merging over
// the defaults. The file is the single source of truth below flags;
// the only expansion performed is ${VAR} in paths for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.Emulator.PersistPath = expandVars(cfg.Emulator.PersistPath)
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration for errors. Only set fields are
// validated: a missing database URL is caught by the command that
// needs one, with flag guidance in the message.
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURL != "" {
		parsed, err := url.Parse(c.DatabaseURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			errs = append(errs, fmt.Errorf("database_url %q must be an http or https URL", c.DatabaseURL))
		}
	}

	switch c.Format {
	case "", "default", "json", "pretty-json":
	default:
		errs = append(errs, fmt.Errorf("format %q must be one of: default, json, pretty-json", c.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// expandVars expands ${VAR} and ${VAR:-default} patterns from the
// environment.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}
