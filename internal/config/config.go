// Package config handles Plata advisor configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/plata/config.yaml, /etc/plata/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "plata", "config.yaml"))
	}

	paths = append(paths, "/etc/plata/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all Plata advisor configuration.
type Config struct {
	DataDir    string           `yaml:"data_dir"`
	LogLevel   string           `yaml:"log_level"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Sessions   SessionsConfig   `yaml:"sessions"`
	Disclaimer string           `yaml:"disclaimer"`
}

// ClassifierConfig tunes the feedback classifier. All fields have
// working defaults; the zero value is usable after ApplyDefaults.
type ClassifierConfig struct {
	// Neighbors is the k in the nearest-neighbor vote.
	Neighbors int `yaml:"neighbors"`
	// RetrainEvery triggers a full model rebuild after this many
	// recorded feedback events.
	RetrainEvery int `yaml:"retrain_every"`
	// MinBootstrap is the minimum number of training examples required
	// before predictions stop being constant fallbacks.
	MinBootstrap int `yaml:"min_bootstrap"`
}

// SessionsConfig controls conversation session persistence.
type SessionsConfig struct {
	// Snapshot enables persisting session state to SQLite so
	// conversations survive a restart.
	Snapshot bool `yaml:"snapshot"`
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills unset fields with working defaults. Safe to call
// on a zero Config.
func (c *Config) ApplyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "."
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Classifier.Neighbors == 0 {
		c.Classifier.Neighbors = 3
	}
	if c.Classifier.RetrainEvery == 0 {
		c.Classifier.RetrainEvery = 10
	}
	if c.Classifier.MinBootstrap == 0 {
		c.Classifier.MinBootstrap = 6
	}
}

// Validate checks configuration consistency. Call after ApplyDefaults.
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Classifier.Neighbors < 1 {
		return fmt.Errorf("classifier.neighbors must be >= 1, got %d", c.Classifier.Neighbors)
	}
	if c.Classifier.RetrainEvery < 1 {
		return fmt.Errorf("classifier.retrain_every must be >= 1, got %d", c.Classifier.RetrainEvery)
	}
	if c.Classifier.MinBootstrap < 1 {
		return fmt.Errorf("classifier.min_bootstrap must be >= 1, got %d", c.Classifier.MinBootstrap)
	}
	return nil
}

// DatabasePath returns the SQLite database path under DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "plata.db")
}
