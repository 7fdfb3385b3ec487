// Package app assembles the newsgather components from a configuration.
package app

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pevans/newsgather/config"
	"github.com/pevans/newsgather/extractor"
	"github.com/pevans/newsgather/fetcher"
	"github.com/pevans/newsgather/logger"
	"github.com/pevans/newsgather/metrics"
	"github.com/pevans/newsgather/outbox"
	"github.com/pevans/newsgather/pipeline"
	"github.com/pevans/newsgather/relevance"
	"github.com/pevans/newsgather/runner"
	"github.com/pevans/newsgather/scraper"
	"github.com/pevans/newsgather/sources"
)

// App holds the wired components. Close releases the source store and
// flushes the logger.
type App struct {
	Config       *config.Config
	Log          logger.Logger
	Metrics      *metrics.Metrics
	Sources      *sources.SourceStore
	Outbox       *outbox.Outbox
	Profiles     *scraper.Registry
	Extractor    *extractor.Extractor
	Engine       *relevance.Engine
	Orchestrator *pipeline.Orchestrator
	Runner       *runner.Runner

	ownsLog bool
}

type options struct {
	log        logger.Logger
	registerer prometheus.Registerer
}

// Option configures Open.
type Option func(*options)

// WithLogger uses l instead of building a logger from the configuration.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithRegisterer registers metrics with reg. Without it metrics are off.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// Open builds every component from cfg.
func Open(cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Log: o.log}
	if a.Log == nil {
		log, err := logger.New(cfg.Log)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		a.Log = log
		a.ownsLog = true
	}

	if o.registerer != nil {
		a.Metrics = metrics.New(o.registerer)
	}

	profiles, err := scraper.LoadRegistry(cfg.ProfilesPath, a.Log)
	if err != nil {
		return nil, err
	}
	a.Profiles = profiles

	store, err := sources.NewSourceStore(cfg.Storage.SourcesDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open source store: %w", err)
	}
	a.Sources = store

	box, err := outbox.New(cfg.Storage.OutboxDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open outbox: %w", err)
	}
	a.Outbox = box

	a.Extractor = extractor.New(profiles, &cfg.Extractor,
		extractor.WithLogger(a.Log.With(logger.Component("extractor"))))
	a.Engine = relevance.New(&cfg.Relevance,
		relevance.WithLogger(a.Log.With(logger.Component("relevance"))))
	a.Orchestrator = pipeline.New(&cfg.Pipeline, a.Extractor, a.Engine,
		pipeline.WithLogger(a.Log.With(logger.Component("pipeline"))),
		pipeline.WithMetrics(a.Metrics),
		pipeline.WithFetcherConfig(&cfg.Fetcher),
	)
	a.Runner = runner.New(store, a.Orchestrator, box, cfg.Topics, &cfg.Runner,
		runner.WithLogger(a.Log.With(logger.Component("runner"))),
		runner.WithMetrics(a.Metrics),
	)

	return a, nil
}

// Fetcher returns a standalone fetcher with the configured retry policy,
// for callers that fetch outside a pipeline run.
func (a *App) Fetcher() *fetcher.Fetcher {
	return fetcher.New(&a.Config.Fetcher,
		fetcher.WithLogger(a.Log.With(logger.Component("fetcher"))),
		fetcher.WithMetrics(a.Metrics),
	)
}

// Close releases the source store and flushes the logger.
func (a *App) Close() error {
	var errs []error
	if a.Sources != nil {
		if err := a.Sources.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close source store: %w", err))
		}
	}
	if a.ownsLog {
		// Sync on stderr reports EINVAL on some platforms.
		_ = a.Log.Sync()
	}
	return errors.Join(errs...)
}
