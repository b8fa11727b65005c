// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-nixstore.
//
// go-nixstore is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package config loads the tool configuration from a YAML file, with
// flag values taking precedence over file values and file values over
// built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete tool configuration.
type Config struct {
	// Store is the root directory of the local store.
	Store string `yaml:"store"`

	// TrustedKeys are public keys in "name:base64" form that entry
	// signatures are verified against.
	TrustedKeys []string `yaml:"trusted_keys"`

	// Substituters are peer store URIs consulted, in order, for
	// additional signatures.
	Substituters []string `yaml:"substituters"`

	// Workers bounds concurrent verification tasks. Zero means the
	// available hardware parallelism.
	Workers int `yaml:"workers"`

	Logging LoggingConfig `yaml:"logging"`
	Serve   ServeConfig   `yaml:"serve"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// ServeConfig controls the store HTTP server.
type ServeConfig struct {
	Port int `yaml:"port"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Store: defaultStoreDir(),
		Logging: LoggingConfig{
			Level: "info",
		},
		Serve: ServeConfig{
			Port: 8090,
		},
	}
}

func defaultStoreDir() string {
	if dir := os.Getenv("NIXSTORE_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nixstore"
	}
	return filepath.Join(home, ".nixstore")
}

// Load reads the configuration file at path, applied over defaults.
// A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must not be negative")
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("config: invalid serve port %d", c.Serve.Port)
	}
	return nil
}
