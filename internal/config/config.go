// Package config loads caseflow settings from defaults, an optional YAML
// file and CASEFLOW_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the binary reads at startup.
type Config struct {
	DBPath     string           `yaml:"db_path"`
	Log        LogConfig        `yaml:"log"`
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Metrics    bool             `yaml:"metrics"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// AuthConfig configures bearer-token identity for the HTTP API. An empty
// secret selects the development resolver that trusts "role:user" tokens.
type AuthConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

type ClassifierConfig struct {
	URL       string `yaml:"url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Timeout returns the classifier request timeout.
func (c ClassifierConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DBPath:     defaultDBPath(),
		Log:        LogConfig{Level: "info", Format: "text"},
		HTTP:       HTTPConfig{Addr: ":8080"},
		Classifier: ClassifierConfig{URL: "http://localhost:8001", TimeoutMs: 30000},
		Metrics:    true,
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "caseflow.db"
	}
	return filepath.Join(home, ".caseflow", "caseflow.db")
}

// Load applies the YAML file named by CASEFLOW_CONFIG, if any, and then the
// environment overrides on top of the defaults.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CASEFLOW_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields from CASEFLOW_* variables. Unparseable numbers
// and booleans are ignored.
func (c *Config) applyEnv() {
	if v := os.Getenv("CASEFLOW_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("CASEFLOW_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CASEFLOW_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("CASEFLOW_AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("CASEFLOW_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("CASEFLOW_CLASSIFIER_URL"); v != "" {
		c.Classifier.URL = v
	}
	if v := os.Getenv("CASEFLOW_CLASSIFIER_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Classifier.TimeoutMs = n
		}
	}
	if v := os.Getenv("CASEFLOW_METRICS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Metrics = b
		}
	}
}

var (
	validLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validFormats = map[string]bool{"text": true, "json": true}
)

// Validate rejects settings the binary cannot start with.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("log level %q must be debug, info, warn or error", c.Log.Level)
	}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("log format %q must be text or json", c.Log.Format)
	}
	if c.Classifier.TimeoutMs <= 0 {
		return fmt.Errorf("classifier timeout_ms must be positive, got %d", c.Classifier.TimeoutMs)
	}
	return nil
}
