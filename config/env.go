package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NEWSGATHER_"

// loadEnvFiles loads .env files without overriding variables already set.
// ENV_FILE, when set, is the only file loaded. Otherwise .env in the config
// directory and then in the working directory are loaded if present.
func loadEnvFiles(dir string) error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
		return nil
	}

	for _, f := range []string{filepath.Join(dir, ".env"), ".env"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// override binds one environment variable to a config field.
type override struct {
	name string
	set  func(c *Config, v string) error
}

var overrides = []override{
	{"LOG_LEVEL", func(c *Config, v string) error { c.Log.Level = v; return nil }},
	{"LOG_DEVELOPMENT", boolField(func(c *Config) *bool { return &c.Log.Development })},
	{"SOURCES_DSN", func(c *Config, v string) error { c.Storage.SourcesDSN = v; return nil }},
	{"OUTBOX_DIR", func(c *Config, v string) error { c.Storage.OutboxDir = v; return nil }},
	{"PROFILES_PATH", func(c *Config, v string) error { c.ProfilesPath = v; return nil }},
	{"METRICS_ADDR", func(c *Config, v string) error { c.MetricsAddr = v; return nil }},
	{"FETCHER_MAX_RETRIES", intField(func(c *Config) *int { return &c.Fetcher.MaxRetries })},
	{"FETCHER_ATTEMPT_TIMEOUT", durationField(func(c *Config) *time.Duration { return &c.Fetcher.AttemptTimeout })},
	{"EXTRACTOR_READABILITY", boolField(func(c *Config) *bool { return &c.Extractor.EnableReadability })},
	{"PIPELINE_CONCURRENCY", intField(func(c *Config) *int { return &c.Pipeline.Concurrency })},
	{"PIPELINE_RUN_TIMEOUT", durationField(func(c *Config) *time.Duration { return &c.Pipeline.RunTimeout })},
	{"RUNNER_POLL_INTERVAL", durationField(func(c *Config) *time.Duration { return &c.Runner.PollInterval })},
	{"RUNNER_TICK_INTERVAL", durationField(func(c *Config) *time.Duration { return &c.Runner.TickInterval })},
	{"RUNNER_CONCURRENCY", intField(func(c *Config) *int { return &c.Runner.Concurrency })},
	{"RUNNER_DISABLE_THRESHOLD", intField(func(c *Config) *int { return &c.Runner.DisableThreshold })},
}

// applyEnvOverrides sets fields from NEWSGATHER_* variables. Empty
// variables are ignored.
func applyEnvOverrides(c *Config) error {
	for _, o := range overrides {
		v := os.Getenv(EnvPrefix + o.name)
		if v == "" {
			continue
		}
		if err := o.set(c, v); err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, o.name, err)
		}
	}
	return nil
}

func intField(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func boolField(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func durationField(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}
