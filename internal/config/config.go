// Package config loads runtime configuration from defaults, an optional
// YAML file, and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration.
type Config struct {
	// DatabasePath is the location of the vault database file.
	DatabasePath string `yaml:"database_path" env:"KEYHAVEN_DB"`

	// LogLevel sets the zap log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" env:"KEYHAVEN_LOG_LEVEL"`

	// DecoyEntryCount is how many fake entries a duress session sees.
	DecoyEntryCount int `yaml:"decoy_entry_count" env:"KEYHAVEN_DECOY_COUNT"`

	// NetworkEnabled allows network access for the process.
	NetworkEnabled bool `yaml:"network_enabled" env:"KEYHAVEN_NETWORK"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DatabasePath:    defaultDatabasePath(),
		LogLevel:        "info",
		DecoyEntryCount: 31,
		NetworkEnabled:  false,
	}
}

// Load builds the effective configuration. path may be empty, in which case
// only defaults and environment variables apply. A missing file at an
// explicit path is an error; a missing file at the default path is not.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(configDir(), "config.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file is fine.
	default:
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment: %w", err)
	}

	return cfg, nil
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".keyhaven"
	}
	return filepath.Join(home, ".keyhaven")
}

func defaultDatabasePath() string {
	return filepath.Join(configDir(), "keyhaven.db")
}
