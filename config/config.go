// Package config loads server settings from an optional YAML file with
// environment overrides. Command-line flags are applied on top by main.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultDB       = "data/workspace.db"
	DefaultDebounce = 500 * time.Millisecond
	DefaultLogLevel = "info"
)

// Config holds every setting of the pagetree server.
type Config struct {
	// DB is the SQLite database path. Ignored when Memory is set.
	DB string `yaml:"db"`
	// HTTPAddr enables the JSON API when non-empty (e.g. ":8080").
	HTTPAddr string `yaml:"http_addr"`
	// Debounce is the trailing-edge save delay per page.
	Debounce time.Duration `yaml:"debounce"`
	LogLevel string        `yaml:"log_level"`
	ReadOnly bool          `yaml:"read_only"`
	// Memory keeps the workspace in memory instead of SQLite.
	Memory bool `yaml:"memory"`
	// Fixture is a YAML workspace file loaded into the in-memory backend.
	Fixture string `yaml:"fixture"`
}

// Default returns a Config with every default filled in.
func Default() Config {
	return Config{
		DB:       DefaultDB,
		Debounce: DefaultDebounce,
		LogLevel: DefaultLogLevel,
	}
}

// Load returns the defaults, overlaid with the YAML file at path (skipped
// when path is empty) and then with PAGETREE_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PAGETREE_DB"); ok && v != "" {
		c.DB = v
	}
	if v, ok := lookup("PAGETREE_HTTP_ADDR"); ok {
		c.HTTPAddr = v
	}
	if v, ok := lookup("PAGETREE_DEBOUNCE"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: PAGETREE_DEBOUNCE: %w", err)
		}
		c.Debounce = d
	}
	if v, ok := lookup("PAGETREE_LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup("PAGETREE_READ_ONLY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: PAGETREE_READ_ONLY: %w", err)
		}
		c.ReadOnly = b
	}
	return nil
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Debounce <= 0 {
		errs = append(errs, fmt.Errorf("debounce must be positive, got %s", c.Debounce))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if !c.Memory && c.DB == "" {
		errs = append(errs, errors.New("db path is required unless memory is set"))
	}
	if c.Fixture != "" && !c.Memory {
		errs = append(errs, errors.New("fixture requires memory mode"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
