package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigEnv names the environment variable that points at a config file.
const ConfigEnv = "KVS_CONFIG"

const DEFAULT_LOG_LEVEL = "warn"

// Config holds the settings of a kvs process. Zero values mean "use the
// default": an empty Dir is the working directory.
type Config struct {
	Dir           string `yaml:"dir"`
	SyncOnWrite   bool   `yaml:"sync_on_write"`
	LockDirectory bool   `yaml:"lock_directory"`
	LogLevel      string `yaml:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: DEFAULT_LOG_LEVEL,
	}
}

// LoadConfig reads a YAML config file on top of the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadConfig: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("LoadConfig: %s: %w", path, err)
	}

	if _, err := cfg.SlogLevel(); err != nil {
		return nil, fmt.Errorf("LoadConfig: %s: %w", path, err)
	}

	return cfg, nil
}

// ResolveDir returns the configured directory, falling back to the process
// working directory.
func (c *Config) ResolveDir() (string, error) {
	if c.Dir != "" {
		return c.Dir, nil
	}
	return os.Getwd()
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, errors.New("unknown log level " + c.LogLevel)
	}
	return level, nil
}
