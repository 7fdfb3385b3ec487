// Package runner polls the source registry and runs the acquisition pipeline
// for every source that is due, handing results to the outbox.
package runner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/newsgather/fetcher"
	"github.com/pevans/newsgather/logger"
	"github.com/pevans/newsgather/metrics"
	"github.com/pevans/newsgather/outbox"
	"github.com/pevans/newsgather/pipeline"
	"github.com/pevans/newsgather/sources"
	"golang.org/x/sync/errgroup"
)

// Orchestrator runs the strategy chain for one request.
type Orchestrator interface {
	Run(ctx context.Context, req pipeline.Request) *pipeline.ScrapingResult
}

// SourceStore is the part of the registry the runner needs.
type SourceStore interface {
	GetSource(id uuid.UUID) (*sources.Source, error)
	ListSources(filter sources.SourceFilter) ([]sources.Source, error)
	UpdateSource(id uuid.UUID, update sources.SourceUpdate) error
	RecordRun(run sources.Run) (int, error)
}

// Outbox receives one batch per topic run.
type Outbox interface {
	Put(sourceID uuid.UUID, sourceName, topic string, result pipeline.ScrapingResult) (*outbox.Batch, error)
}

// Config holds runner configuration.
type Config struct {
	// Global polling interval for sources without explicit interval
	PollInterval time.Duration `yaml:"poll_interval"`
	// How often the registry is checked for due sources
	TickInterval time.Duration `yaml:"tick_interval"`
	// Maximum number of sources run in parallel
	Concurrency int `yaml:"concurrency"`
	// Timeout per source run, across all of its topics
	SourceTimeout time.Duration `yaml:"source_timeout"`
	// Number of consecutive failures before auto-disabling a source
	DisableThreshold int `yaml:"disable_threshold"`
}

// Polling interval bounds for per-source overrides.
const (
	MinPollInterval = 5 * time.Minute
	MaxPollInterval = 24 * time.Hour
)

// DefaultConfig returns the default runner configuration.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:     1 * time.Hour,
		TickInterval:     5 * time.Minute,
		Concurrency:      5,
		SourceTimeout:    10 * time.Minute,
		DisableThreshold: 10,
	}
}

// Runner is the background service that runs due sources.
type Runner struct {
	store   SourceStore
	orch    Orchestrator
	outbox  Outbox
	topics  Topics
	config  *Config
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	stopOnce sync.Once
	stopChan chan struct{}
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) { r.log = logger.OrNop(l) }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a Runner. A nil config uses DefaultConfig.
func New(store SourceStore, orch Orchestrator, box Outbox, topics Topics, config *Config, opts ...Option) *Runner {
	if config == nil {
		config = DefaultConfig()
	}

	r := &Runner{
		store:    store,
		orch:     orch,
		outbox:   box,
		topics:   topics,
		config:   config,
		log:      logger.NewNop(),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run checks for due sources immediately and then on every tick, until Stop
// is called or the context is cancelled. In-progress runs finish first.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("runner starting",
		logger.Duration("tick_interval", r.config.TickInterval),
		logger.Int("concurrency", r.config.Concurrency))

	if err := r.RunDue(ctx); err != nil {
		r.log.Error("initial source run failed", logger.Error(err))
	}

	ticker := time.NewTicker(r.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("runner stopping (context cancelled)")
			return ctx.Err()
		case <-r.stopChan:
			r.log.Info("runner stopping")
			return nil
		case <-ticker.C:
			if err := r.RunDue(ctx); err != nil {
				r.log.Error("source run failed", logger.Error(err))
			}
		}
	}
}

// Stop signals the runner to stop gracefully.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
}

// RunDue runs every enabled source that is due and waits for them to finish.
func (r *Runner) RunDue(ctx context.Context) error {
	enabled := true
	all, err := r.store.ListSources(sources.SourceFilter{Enabled: &enabled})
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	due := r.filterDueSources(all)
	if len(due) == 0 {
		return nil
	}
	r.log.Info("running due sources", logger.Int("count", len(due)))

	var g errgroup.Group
	g.SetLimit(max(r.config.Concurrency, 1))
	for _, source := range due {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if _, err := r.runSource(ctx, source); err != nil {
				r.log.Error("failed to run source",
					logger.String("source", source.Name),
					logger.String("source_id", source.SourceID.String()),
					logger.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

// SyncSource runs one source immediately, whether or not it is due or
// enabled, and returns the batches written.
func (r *Runner) SyncSource(ctx context.Context, id uuid.UUID) ([]*outbox.Batch, error) {
	source, err := r.store.GetSource(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return r.runSource(ctx, *source)
}

// filterDueSources returns sources that are enabled and due for a run.
func (r *Runner) filterDueSources(all []sources.Source) []sources.Source {
	now := r.now()
	var due []sources.Source

	for _, source := range all {
		if !source.IsEnabled() {
			continue
		}
		if r.isSourceDue(source, r.getPollingInterval(source), now) {
			due = append(due, source)
		}
	}
	return due
}

// getPollingInterval returns the source's own interval, clamped to
// [MinPollInterval, MaxPollInterval], or the global default.
func (r *Runner) getPollingInterval(source sources.Source) time.Duration {
	if source.PollingInterval != nil {
		interval, err := time.ParseDuration(*source.PollingInterval)
		if err == nil {
			return min(max(interval, MinPollInterval), MaxPollInterval)
		}
	}
	return r.config.PollInterval
}

// isSourceDue reports whether a source has never run or its interval has
// elapsed.
func (r *Runner) isSourceDue(source sources.Source, interval time.Duration, now time.Time) bool {
	if source.LastRunAt == nil {
		return true
	}
	return !now.Before(source.LastRunAt.Add(interval))
}

// runSource runs every topic for a source, writes one batch per topic and
// records the outcome.
func (r *Runner) runSource(ctx context.Context, source sources.Source) ([]*outbox.Batch, error) {
	log := r.log.With(
		logger.String("source", source.Name),
		logger.String("source_id", source.SourceID.String()))

	topics := r.topics.For(source.Region)
	if len(topics) == 0 {
		return nil, fmt.Errorf("no topics for source %q: set a region or configure keyword topics", source.Name)
	}

	if r.config.SourceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.SourceTimeout)
		defer cancel()
	}

	start := r.now()
	run := sources.Run{SourceID: source.SourceID, RanAt: start.UTC()}
	var batches []*outbox.Batch
	var failures []string
	var siteErr error

	for _, topic := range topics {
		result := r.orch.Run(ctx, pipeline.Request{
			FeedURL:   source.FeedURL,
			Topic:     topic,
			Region:    source.Region,
			Competing: r.topics.Competing(topic),
			Source: pipeline.SourceInfo{
				Name:            source.Name,
				SourceType:      source.SourceType,
				CanonicalDomain: source.CanonicalDomain,
				FeedURL:         source.FeedURL,
				UserSelected:    source.UserSelected,
			},
		})

		batch, err := r.outbox.Put(source.SourceID, source.Name, topic.Name, *result)
		if err != nil {
			return batches, fmt.Errorf("failed to write batch: %w", err)
		}
		batches = append(batches, batch)

		run.ArticlesFound += result.ArticlesFound
		run.ArticlesScraped += result.ArticlesScraped
		if result.Success || run.Method == "" {
			run.Method = result.Method
		}
		if result.Success {
			run.Success = true
		} else {
			failures = append(failures, topic.Name+": "+strings.Join(result.Errors, "; "))
			if siteErr == nil {
				siteErr = result.SiteError
			}
		}

		log.Info("topic run finished",
			logger.String("topic", topic.Name),
			logger.Bool("success", result.Success),
			logger.String("method", result.Method),
			logger.Int("found", result.ArticlesFound),
			logger.Int("scraped", result.ArticlesScraped),
			logger.String("batch_id", batch.ID.String()))
	}

	if !run.Success {
		run.Error = strings.Join(failures, " | ")
	}

	count, err := r.store.RecordRun(run)
	if err != nil {
		return batches, fmt.Errorf("failed to record run: %w", err)
	}

	if run.Success {
		if elapsed := r.now().Sub(start); elapsed > r.config.SourceTimeout/2 && r.config.SourceTimeout > 0 {
			log.Warn("slow source run", logger.Duration("elapsed", elapsed))
		}
		return batches, nil
	}

	r.handleRunFailure(log, source, siteErr, count)
	return batches, nil
}

// handleRunFailure disables a source after a permanent site error, or once
// consecutive failures reach the threshold.
func (r *Runner) handleRunFailure(log logger.Logger, source sources.Source, siteErr error, failures int) {
	cause := ""
	switch {
	case isPermanentError(siteErr):
		cause = "permanent"
		log.Error("disabling source due to permanent error", logger.Error(siteErr))
	case r.config.DisableThreshold > 0 && failures >= r.config.DisableThreshold:
		cause = "threshold"
		log.Error("auto-disabling source after consecutive failures", logger.Int("failures", failures))
	default:
		log.Warn("source run failed", logger.Int("failures", failures))
		return
	}

	if !source.IsEnabled() {
		return
	}
	if err := r.store.UpdateSource(source.SourceID, sources.SourceUpdate{ClearEnabledAt: true}); err != nil {
		log.Error("failed to disable source", logger.Error(err))
		return
	}
	r.metrics.ObserveDisable(cause)
}

// isPermanentError reports whether a site error means the source is gone
// (HTTP 404 or 410, unknown host, invalid URL) rather than temporarily
// failing.
func isPermanentError(err error) bool {
	if err == nil {
		return false
	}

	var fe *fetcher.FetchError
	if errors.As(err, &fe) {
		if fe.StatusCode == http.StatusNotFound || fe.StatusCode == http.StatusGone {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return true
	}

	if errors.Is(err, fetcher.ErrInvalidURL) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	for _, marker := range []string{"no such host", "status 404", "status 410", "unsupported protocol"} {
		if strings.Contains(errMsg, marker) {
			return true
		}
	}

	// Default to transient (network timeouts, temporary server errors, etc.)
	return false
}
