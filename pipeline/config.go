package pipeline

import "time"

// Config holds orchestration tuning.
type Config struct {
	// MinWords is the word floor below which articles are dropped.
	MinWords int `yaml:"min_words"`
	// MinQuality is the content quality floor for admission.
	MinQuality int `yaml:"min_quality"`

	MaxFeedItems    int `yaml:"max_feed_items"`
	MaxHTMLArticles int `yaml:"max_html_articles"`
	MaxFeedLinks    int `yaml:"max_feed_links"`

	// Concurrency bounds in-flight article fetches within one run.
	Concurrency int `yaml:"concurrency"`

	MaxRetries int           `yaml:"max_retries"`
	RunTimeout time.Duration `yaml:"run_timeout"`
}

// DefaultConfig returns the default orchestration configuration.
func DefaultConfig() *Config {
	return &Config{
		MinWords:        30,
		MinQuality:      20,
		MaxFeedItems:    15,
		MaxHTMLArticles: 8,
		MaxFeedLinks:    5,
		Concurrency:     4,
		MaxRetries:      3,
		RunTimeout:      5 * time.Minute,
	}
}
