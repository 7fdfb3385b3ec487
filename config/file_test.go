package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pevans/newsgather/relevance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: write a config file into a fresh directory
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestLoad_NoFile verifies defaults when the file is missing
func TestLoad_NoFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "sources.db"), cfg.Storage.SourcesDSN)
	assert.Equal(t, filepath.Join(dir, "outbox"), cfg.Storage.OutboxDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 3, cfg.Fetcher.MaxRetries)
	assert.Equal(t, 30, cfg.Pipeline.MinWords)
	assert.Equal(t, time.Hour, cfg.Runner.PollInterval)
	assert.True(t, cfg.Extractor.EnableReadability)
	assert.Empty(t, cfg.Topics)
}

// TestLoad_DefaultPathUsesHome verifies the empty path resolves under HOME
func TestLoad_DefaultPathUsesHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".newsgather", "config.yaml"), path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".newsgather", "sources.db"), cfg.Storage.SourcesDSN)
}

// TestLoad_ValidConfig verifies file values override defaults and leave the
// rest intact
func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
storage:
  sources_dsn: data/sources.db
  outbox_dir: /var/spool/newsgather
fetcher:
  max_retries: 5
  attempt_timeout: 10s
pipeline:
  min_words: 40
  run_timeout: 2m
relevance:
  keyword:
    multiplier: 2
  regional:
    source_multipliers:
      national: 0.8
  thresholds:
    regional:
      hyperlocal: {selected: 12, default: 28}
runner:
  poll_interval: 30m
topics:
  - name: eastbourne
    topic_type: regional
    region: Eastbourne
    landmarks: [Beachy Head, Eastbourne Pier]
    postcodes: [BN20, BN21]
  - name: ai
    topic_type: keyword
    keywords: [AI, machine learning]
    negative_keywords: [sponsored]
profiles_path: profiles.yaml
`)
	dir := filepath.Dir(path)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, filepath.Join(dir, "data", "sources.db"), cfg.Storage.SourcesDSN)
	assert.Equal(t, "/var/spool/newsgather", cfg.Storage.OutboxDir)
	assert.Equal(t, filepath.Join(dir, "profiles.yaml"), cfg.ProfilesPath)

	assert.Equal(t, 5, cfg.Fetcher.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.Fetcher.AttemptTimeout)
	assert.Equal(t, 3*time.Second, cfg.Fetcher.GovernmentBaseDelay, "untouched fields keep defaults")

	assert.Equal(t, 40, cfg.Pipeline.MinWords)
	assert.Equal(t, 2*time.Minute, cfg.Pipeline.RunTimeout)
	assert.Equal(t, 20, cfg.Pipeline.MinQuality)

	assert.InDelta(t, 2.0, cfg.Relevance.Keyword.Multiplier, 0)
	assert.InDelta(t, 10.0, cfg.Relevance.Keyword.TitleWeight, 0)
	assert.InDelta(t, 0.8, cfg.Relevance.Regional.SourceMultipliers[relevance.SourceNational], 0)
	assert.InDelta(t, 1.3, cfg.Relevance.Regional.SourceMultipliers[relevance.SourceHyperlocal], 0)

	regional := cfg.Relevance.Thresholds[relevance.TopicRegional]
	assert.Equal(t, relevance.ThresholdPair{Selected: 12, Default: 28}, regional[relevance.SourceHyperlocal])
	assert.Equal(t, relevance.ThresholdPair{Selected: 30, Default: 50}, regional[relevance.SourceNational],
		"rows missing from the file are restored")
	assert.Equal(t, relevance.ThresholdPair{Selected: 10, Default: 25},
		cfg.Relevance.Thresholds[relevance.TopicKeyword][relevance.SourceRegional])

	assert.Equal(t, 30*time.Minute, cfg.Runner.PollInterval)
	assert.Equal(t, 5, cfg.Runner.Concurrency)

	require.Len(t, cfg.Topics, 2)
	assert.Equal(t, relevance.TopicRegional, cfg.Topics[0].TopicType)
	assert.Equal(t, []string{"Beachy Head", "Eastbourne Pier"}, cfg.Topics[0].Landmarks)
	assert.Equal(t, []string{"sponsored"}, cfg.Topics[1].NegativeKeywords)
}

// TestLoad_InvalidYAML verifies parse failures are reported
func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "storage: [unclosed\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

// TestLoad_InvalidTopics verifies topic validation
func TestLoad_InvalidTopics(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"regional without region", "topics:\n  - name: x\n    topic_type: regional\n"},
		{"keyword without keywords", "topics:\n  - name: x\n    topic_type: keyword\n"},
		{"unknown type", "topics:\n  - name: x\n    topic_type: weather\n"},
		{"missing name", "topics:\n  - topic_type: keyword\n    keywords: [a]\n"},
		{"duplicate", "topics:\n  - {name: x, topic_type: keyword, keywords: [a]}\n  - {name: x, topic_type: keyword, keywords: [b]}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

// TestLoad_EnvOverrides verifies NEWSGATHER_* variables win over the file
func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "runner:\n  concurrency: 2\n")
	t.Setenv("NEWSGATHER_RUNNER_CONCURRENCY", "8")
	t.Setenv("NEWSGATHER_SOURCES_DSN", "/tmp/other.db")
	t.Setenv("NEWSGATHER_PIPELINE_RUN_TIMEOUT", "90s")
	t.Setenv("NEWSGATHER_EXTRACTOR_READABILITY", "false")
	t.Setenv("NEWSGATHER_METRICS_ADDR", ":9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Runner.Concurrency)
	assert.Equal(t, "/tmp/other.db", cfg.Storage.SourcesDSN)
	assert.Equal(t, 90*time.Second, cfg.Pipeline.RunTimeout)
	assert.False(t, cfg.Extractor.EnableReadability)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
}

// TestLoad_InvalidEnvOverride verifies malformed overrides are rejected
func TestLoad_InvalidEnvOverride(t *testing.T) {
	t.Setenv("NEWSGATHER_RUNNER_TICK_INTERVAL", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NEWSGATHER_RUNNER_TICK_INTERVAL")
}

// TestLoad_DotEnvFile verifies .env beside the config file is read without
// overriding the real environment
func TestLoad_DotEnvFile(t *testing.T) {
	path := writeConfig(t, "")
	dir := filepath.Dir(path)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("NEWSGATHER_LOG_LEVEL=warn\nNEWSGATHER_RUNNER_DISABLE_THRESHOLD=3\n"), 0o600))
	t.Setenv("NEWSGATHER_LOG_LEVEL", "error")
	t.Cleanup(func() { os.Unsetenv("NEWSGATHER_RUNNER_DISABLE_THRESHOLD") })

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 3, cfg.Runner.DisableThreshold)
}
