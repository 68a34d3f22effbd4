package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigPath is read when no path is given and the file exists.
const ConfigPath = "library.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	LogLevel string `yaml:"logLevel"`
	Store    string `yaml:"store"`
	SeedPath string `yaml:"seedPath"`
}

// Default returns the configuration used when no file is present.
func Default() FileConfig {
	return FileConfig{
		LogLevel: "warn",
		Store:    "memory",
	}
}

// Load reads config from path (defaults to ConfigPath) and applies
// environment overrides. A missing default file is not an error; a missing
// explicit path is.
func Load(path string) (FileConfig, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = ConfigPath
	}
	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	// Override with environment variables
	if v := os.Getenv("LIBRARY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LIBRARY_STORE"); v != "" {
		cfg.Store = v
	}
	if v := os.Getenv("LIBRARY_SEED"); v != "" {
		cfg.SeedPath = v
	}
	return cfg, nil
}
