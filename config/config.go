// Package config loads newsgather configuration: built-in defaults, then the
// YAML file, then .env files and NEWSGATHER_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pevans/newsgather/extractor"
	"github.com/pevans/newsgather/fetcher"
	"github.com/pevans/newsgather/logger"
	"github.com/pevans/newsgather/pipeline"
	"github.com/pevans/newsgather/relevance"
	"github.com/pevans/newsgather/runner"
)

// StorageConfig locates the source registry and the outbox.
type StorageConfig struct {
	SourcesDSN string `yaml:"sources_dsn"`
	OutboxDir  string `yaml:"outbox_dir"`
}

// Config is the full newsgather configuration.
type Config struct {
	Log       logger.Config    `yaml:"log"`
	Storage   StorageConfig    `yaml:"storage"`
	Fetcher   fetcher.Config   `yaml:"fetcher"`
	Extractor extractor.Config `yaml:"extractor"`
	Pipeline  pipeline.Config  `yaml:"pipeline"`
	Relevance relevance.Config `yaml:"relevance"`
	Runner    runner.Config    `yaml:"runner"`
	Topics    runner.Topics    `yaml:"topics"`

	// ProfilesPath is an optional YAML file of site profiles extending the
	// built-in ones.
	ProfilesPath string `yaml:"profiles_path"`

	// MetricsAddr is the daemon's Prometheus listener, e.g. ":9090".
	// Empty disables it.
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the built-in configuration. Storage lives under dir.
func Default(dir string) *Config {
	cfg := &Config{
		Storage: StorageConfig{
			SourcesDSN: filepath.Join(dir, "sources.db"),
			OutboxDir:  filepath.Join(dir, "outbox"),
		},
		Fetcher:   *fetcher.DefaultConfig(),
		Extractor: *extractor.DefaultConfig(),
		Pipeline:  *pipeline.DefaultConfig(),
		Relevance: *relevance.DefaultConfig(),
		Runner:    *runner.DefaultConfig(),
	}
	cfg.Log.SetDefaults()
	return cfg
}

// Dir returns the newsgather home directory, ~/.newsgather.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".newsgather"), nil
}

// DefaultPath returns ~/.newsgather/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Validate checks the values that would otherwise fail at run time.
func (c *Config) Validate() error {
	if c.Storage.SourcesDSN == "" {
		return fmt.Errorf("storage.sources_dsn must be set")
	}
	if c.Storage.OutboxDir == "" {
		return fmt.Errorf("storage.outbox_dir must be set")
	}

	seen := map[string]bool{}
	for i, topic := range c.Topics {
		if topic.Name == "" {
			return fmt.Errorf("topics[%d]: name must be set", i)
		}
		if seen[topic.Name] {
			return fmt.Errorf("topics[%d]: duplicate topic name %q", i, topic.Name)
		}
		seen[topic.Name] = true
		if err := topic.Validate(); err != nil {
			return fmt.Errorf("topics[%d]: %w", i, err)
		}
	}

	if c.Pipeline.MinWords < 1 {
		return fmt.Errorf("pipeline.min_words must be at least 1")
	}
	if c.Runner.Concurrency < 1 || c.Pipeline.Concurrency < 1 {
		return fmt.Errorf("runner.concurrency and pipeline.concurrency must be at least 1")
	}
	return nil
}
