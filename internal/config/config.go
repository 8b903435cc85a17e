// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-pwkeychain.
//
// go-pwkeychain is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Storage backend names.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
)

// DefaultDataDir is the storage root used when none is configured.
const DefaultDataDir = "~/.pwkeychain"

// Config represents the complete CLI configuration
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Storage  StorageConfig  `yaml:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Audit    AuditConfig    `yaml:"audit"`
	Keychain KeychainConfig `yaml:"keychain"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig selects where keychain dumps are kept
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// MetricsConfig controls the Prometheus textfile export. When Textfile is
// empty no file is written even if metrics are enabled.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"`
}

// AuditConfig controls the audit trail kept next to the keychains
type AuditConfig struct {
	Enabled   bool `yaml:"enabled"`
	MaxEvents int  `yaml:"max_events"`
}

// KeychainConfig holds keychain defaults
type KeychainConfig struct {
	Name           string `yaml:"name"`
	PadValues      bool   `yaml:"pad_values"`
	MaxValueLength int    `yaml:"max_value_length"`
	VerifyChecksum bool   `yaml:"verify_checksum"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			Path:    DefaultDataDir,
		},
		Audit: AuditConfig{
			Enabled:   true,
			MaxEvents: 1000,
		},
		Keychain: KeychainConfig{
			Name:           "default",
			MaxValueLength: 64,
			VerifyChecksum: true,
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults and
// applies environment variable overrides
func Load(path string) (*Config, error) {
	// #nosec G304 - Config file path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when path is
// empty or does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	cfg := Default()
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	// Logging
	if level := os.Getenv("PWKEYCHAIN_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("PWKEYCHAIN_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}

	// Storage
	if backend := os.Getenv("PWKEYCHAIN_STORAGE_BACKEND"); backend != "" {
		cfg.Storage.Backend = backend
	}
	if dataDir := os.Getenv("PWKEYCHAIN_DATA_DIR"); dataDir != "" {
		cfg.Storage.Path = dataDir
	}

	// Metrics
	envBool("PWKEYCHAIN_METRICS_ENABLED", &cfg.Metrics.Enabled)
	if textfile := os.Getenv("PWKEYCHAIN_METRICS_TEXTFILE"); textfile != "" {
		cfg.Metrics.Textfile = textfile
	}

	// Audit
	envBool("PWKEYCHAIN_AUDIT_ENABLED", &cfg.Audit.Enabled)

	// Keychain
	if name := os.Getenv("PWKEYCHAIN_NAME"); name != "" {
		cfg.Keychain.Name = name
	}
	envBool("PWKEYCHAIN_PAD_VALUES", &cfg.Keychain.PadValues)
	envBool("PWKEYCHAIN_VERIFY_CHECKSUM", &cfg.Keychain.VerifyChecksum)
	if v := os.Getenv("PWKEYCHAIN_MAX_VALUE_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			log.Printf("Warning: invalid PWKEYCHAIN_MAX_VALUE_LENGTH value %q, using %d",
				v, cfg.Keychain.MaxValueLength)
		} else {
			cfg.Keychain.MaxValueLength = n
		}
	}
}

func envBool(key string, dst *bool) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Warning: invalid %s value %q, using %t: %v", key, v, *dst, err)
		return
	}
	*dst = b
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json": true, "text": true,
	}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the file backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid storage backend: %s (must be file or memory)", c.Storage.Backend)
	}

	if c.Audit.MaxEvents < 0 {
		return fmt.Errorf("invalid audit max_events: %d", c.Audit.MaxEvents)
	}

	if c.Keychain.Name == "" {
		return fmt.Errorf("keychain name is required")
	}
	if c.Keychain.MaxValueLength < 1 {
		return fmt.Errorf("invalid max_value_length: %d", c.Keychain.MaxValueLength)
	}

	return nil
}

// DataDir returns the storage path with a leading ~ expanded to the
// user's home directory.
func (c *Config) DataDir() (string, error) {
	p := c.Storage.Path
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return filepath.Clean(p), nil
}
