package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pevans/newsgather/relevance"
	"gopkg.in/yaml.v3"
)

// Load builds the configuration from defaults, the YAML file at path and the
// environment. A missing file is not an error. An empty path uses
// DefaultPath. Relative storage paths in the file resolve against the file's
// directory.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	dir := filepath.Dir(path)
	cfg := Default(dir)

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// File doesn't exist -- defaults and environment only
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	fillThresholds(cfg.Relevance.Thresholds, relevance.DefaultConfig().Thresholds)

	if err := loadEnvFiles(dir); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.SourcesDSN = resolve(dir, cfg.Storage.SourcesDSN)
	cfg.Storage.OutboxDir = resolve(dir, cfg.Storage.OutboxDir)
	if cfg.ProfilesPath != "" {
		cfg.ProfilesPath = resolve(dir, cfg.ProfilesPath)
	}
	cfg.Log.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// fillThresholds restores default rows a partial thresholds table in the
// file replaced.
func fillThresholds(dst, defaults relevance.Thresholds) {
	for topicType, row := range defaults {
		if dst[topicType] == nil {
			dst[topicType] = map[relevance.SourceType]relevance.ThresholdPair{}
		}
		for sourceType, pair := range row {
			if _, ok := dst[topicType][sourceType]; !ok {
				dst[topicType][sourceType] = pair
			}
		}
	}
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) || p == ":memory:" {
		return p
	}
	return filepath.Join(dir, p)
}
