// Package config holds symfetch's runtime configuration: defaults,
// an optional YAML config file, and SYMFETCH_* environment overrides,
// applied in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultServerURL is the symbol-distribution service queried when no
// other server is configured.
const DefaultServerURL = "http://symbolserver.unity3d.com"

// DefaultTimeout bounds a whole archive download.
const DefaultTimeout = 5 * time.Minute

// Config is the full runtime configuration.
type Config struct {
	// ServerURL is the root of the symbol-distribution service.
	ServerURL string `yaml:"server_url" env:"SYMFETCH_SERVER_URL"`

	// Timeout bounds the archive download.
	Timeout time.Duration `yaml:"timeout" env:"SYMFETCH_TIMEOUT"`

	// KeepArchive leaves the downloaded archive in place instead of
	// deleting it after extraction.
	KeepArchive bool `yaml:"keep_archive" env:"SYMFETCH_KEEP_ARCHIVE"`

	// Log configures diagnostic output.
	Log LogConfig `yaml:"log"`
}

// LogConfig configures the logger.
type LogConfig struct {
	// Level sets the logging level (debug, info, warn, error).
	Level string `yaml:"level" env:"SYMFETCH_LOG_LEVEL"`

	// Pretty enables human-readable console output.
	Pretty bool `yaml:"pretty" env:"SYMFETCH_LOG_PRETTY"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ServerURL: DefaultServerURL,
		Timeout:   DefaultTimeout,
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Path returns the location of the optional config file.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "symfetch", "config.yaml"), nil
}

// Load resolves the effective configuration: defaults, then the config
// file if present, then environment overrides.
func Load() (Config, error) {
	cfg := Default()

	if path, err := Path(); err == nil {
		if err := loadFile(&cfg, path); err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := LoadFromEnv(&cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.validate()
}

// loadFile merges the YAML file at path into cfg.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (c Config) validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server URL must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
