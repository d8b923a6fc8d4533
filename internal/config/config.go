// Package config resolves runtime settings from defaults, an optional YAML
// file and SKILLTREE_* environment variables, in increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath           string `yaml:"db"`
	GatewayTimeoutMs int    `yaml:"gateway_timeout_ms" validate:"gt=0"`
	LogLevel         string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat        string `yaml:"log_format" validate:"oneof=text json"`
	// UserID is the acting user for progress and assignment commands.
	UserID      string `yaml:"user"`
	MetricsFile string `yaml:"metrics_file"`
}

var configValidate = validator.New()

func Default() Config {
	return Config{
		GatewayTimeoutMs: 10000,
		LogLevel:         "warn",
		LogFormat:        "text",
	}
}

// Load builds the configuration. An explicit path must exist; with an empty
// path, ~/.skilltree/config.yaml is read when present.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".skilltree", "config.yaml")
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decode(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("reading config %s: %w", path, err)
			}
		case explicit || !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("finding home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(home, ".skilltree", "skilltree.db")
	}
	if err := configValidate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SKILLTREE_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SKILLTREE_GATEWAY_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.GatewayTimeoutMs = n
		}
	}
	if v := os.Getenv("SKILLTREE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SKILLTREE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("SKILLTREE_USER"); v != "" {
		cfg.UserID = v
	}
	if v := os.Getenv("SKILLTREE_METRICS_FILE"); v != "" {
		cfg.MetricsFile = v
	}
}

// GatewayTimeout is the per-call gateway timeout.
func (c Config) GatewayTimeout() time.Duration {
	return time.Duration(c.GatewayTimeoutMs) * time.Millisecond
}
