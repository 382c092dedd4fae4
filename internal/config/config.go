package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"quickfind/internal/logging"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

const (
	// DefaultDBPath is relative to the working directory.
	DefaultDBPath = "file_index.db"
	// DefaultBatchSize is the number of files committed per transaction during refresh.
	DefaultBatchSize = 1000
	// DefaultSearchLimit is the result cap when --limit is not given.
	DefaultSearchLimit = 50
	// DefaultDriver is the database/sql driver used for the index.
	DefaultDriver = "sqlite3"
)

// Config represents the complete quickfind configuration.
type Config struct {
	DBPath    string       `yaml:"db_path"`
	Driver    string       `yaml:"driver"`
	Roots     []string     `yaml:"roots"`
	SkipDirs  []string     `yaml:"skip_dirs"`
	BatchSize int          `yaml:"batch_size"`
	Search    SearchConfig `yaml:"search"`
	Logging   LogConfig    `yaml:"logging"`
}

// SearchConfig configures query defaults.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
}

// LogConfig configures the slog logger.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration. Roots is empty, meaning the
// indexer falls back to its default root set.
func Default() Config {
	return Config{
		DBPath:    DefaultDBPath,
		Driver:    DefaultDriver,
		BatchSize: DefaultBatchSize,
		Search: SearchConfig{
			DefaultLimit: DefaultSearchLimit,
		},
		Logging: LogConfig{
			Level: "warn",
		},
	}
}

// Load reads the YAML file at path on top of Default. A missing file is not
// an error when path is empty; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
	if c.Driver == "" {
		c.Driver = d.Driver
	}
	if c.BatchSize == 0 {
		c.BatchSize = d.BatchSize
	}
	if c.Search.DefaultLimit == 0 {
		c.Search.DefaultLimit = d.Search.DefaultLimit
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalid, c.BatchSize)
	}
	if c.Search.DefaultLimit < 1 {
		return fmt.Errorf("%w: search.default_limit must be positive, got %d", ErrInvalid, c.Search.DefaultLimit)
	}
	switch c.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("%w: driver must be sqlite3 or sqlite, got %q", ErrInvalid, c.Driver)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level)
	}
	return nil
}

// ResolveDBPath returns the absolute database path; ":memory:" is kept as is.
func (c Config) ResolveDBPath() (string, error) {
	if c.DBPath == ":memory:" {
		return c.DBPath, nil
	}
	abs, err := filepath.Abs(c.DBPath)
	if err != nil {
		return "", fmt.Errorf("resolve db path: %w", err)
	}
	return abs, nil
}
