// Package config resolves where tomatoclock keeps its data and how it logs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const appDir = "tomatoclock"

// Environment variables that override values from the config file.
const (
	EnvDBPath   = "TOMATOCLOCK_DB_PATH"
	EnvLogFile  = "TOMATOCLOCK_LOG_FILE"
	EnvLogLevel = "TOMATOCLOCK_LOG_LEVEL"
)

// Config holds the process-level settings. Per-user preferences such as the
// default timer length live in the store, not here.
type Config struct {
	// DBPath is the store file. Empty selects store.DefaultDBPath.
	DBPath   string `yaml:"db_path"`
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	cfg := &Config{LogLevel: "info"}
	if dir, err := os.UserConfigDir(); err == nil {
		cfg.LogFile = filepath.Join(dir, appDir, "tomatoclock.log")
	}
	return cfg
}

// DefaultPath returns <UserConfigDir>/tomatoclock/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, appDir, "config.yaml"), nil
}

// Load builds the configuration from defaults, the YAML file at path (or
// DefaultPath when empty), an optional .env in the working directory and
// finally the TOMATOCLOCK_* environment variables. A missing file is not
// an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(cfg)

	cfg.DBPath = expandTilde(cfg.DBPath)
	cfg.LogFile = expandTilde(cfg.LogFile)
	return cfg, nil
}

// loadFromFile reads a YAML config file and merges it into cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvDBPath); ok {
		cfg.DBPath = v
	}
	if v, ok := os.LookupEnv(EnvLogFile); ok {
		cfg.LogFile = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
}

// Save writes cfg as YAML to path, creating the directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// expandTilde expands a leading ~ to the user's home directory.
func expandTilde(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
