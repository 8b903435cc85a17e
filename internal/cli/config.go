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

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-pwkeychain/internal/config"
	"github.com/jeremyhahn/go-pwkeychain/pkg/adapters/logger"
	"github.com/jeremyhahn/go-pwkeychain/pkg/keychain"
	"github.com/jeremyhahn/go-pwkeychain/pkg/storage"
	"github.com/jeremyhahn/go-pwkeychain/pkg/storage/file"
	"github.com/jeremyhahn/go-pwkeychain/pkg/storage/memory"
)

// EnvPrefix is the prefix of every environment variable the CLI reads.
const EnvPrefix = "PWKEYCHAIN"

// Config holds global CLI configuration
type Config struct {
	// ConfigFile is the path to the configuration file
	ConfigFile string

	// Name selects the keychain to operate on
	Name string

	// Backend is the storage backend (file or memory)
	Backend string

	// DataDir is the storage root for the file backend
	DataDir string

	// OutputFormat controls output formatting (json, text)
	OutputFormat string

	// Verbose enables debug logging
	Verbose bool

	// PasswordStdin reads the master password from the first line of stdin
	PasswordStdin bool
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		ConfigFile:   "",
		Name:         keychain.DefaultName,
		Backend:      config.BackendFile,
		DataDir:      config.DefaultDataDir,
		OutputFormat: string(OutputFormatText),
	}
}

// newViper binds the persistent flags to a viper instance that also reads
// PWKEYCHAIN_* environment variables. Flags win over the environment.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, name := range []string{"config", "name", "backend", "data-dir", "output", "verbose"} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return v, nil
}

// resolve loads the configuration file and layers flags and environment
// variables on top of it.
func (c *Config) resolve(v *viper.Viper) (*config.Config, error) {
	if v.IsSet("config") {
		c.ConfigFile = v.GetString("config")
	}

	settings, err := config.LoadOrDefault(c.ConfigFile)
	if err != nil {
		return nil, err
	}

	if v.IsSet("name") {
		settings.Keychain.Name = v.GetString("name")
	}
	if v.IsSet("backend") {
		settings.Storage.Backend = v.GetString("backend")
	}
	if v.IsSet("data-dir") {
		settings.Storage.Path = v.GetString("data-dir")
	}
	if v.GetBool("verbose") {
		settings.Logging.Level = "debug"
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c.Name = settings.Keychain.Name
	c.Backend = settings.Storage.Backend
	c.DataDir = settings.Storage.Path
	c.OutputFormat = v.GetString("output")
	c.Verbose = v.GetBool("verbose")

	switch OutputFormat(c.OutputFormat) {
	case OutputFormatText, OutputFormatJSON:
	default:
		return nil, fmt.Errorf("unknown output format: %s", c.OutputFormat)
	}
	return settings, nil
}

// CreateStorage creates the storage backend named by the configuration
func CreateStorage(settings *config.Config) (storage.Backend, error) {
	switch settings.Storage.Backend {
	case config.BackendFile:
		dir, err := settings.DataDir()
		if err != nil {
			return nil, err
		}
		backend, err := file.New(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage backend: %w", err)
		}
		return backend, nil
	case config.BackendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", settings.Storage.Backend)
	}
}

// KeychainOptions translates the keychain section into keychain options.
func KeychainOptions(settings *config.Config, log logger.Logger) []keychain.Option {
	opts := []keychain.Option{keychain.WithLogger(log)}
	if settings.Keychain.PadValues {
		opts = append(opts, keychain.WithValuePadding(settings.Keychain.MaxValueLength))
	}
	return opts
}
