// Package pipeline runs the acquisition strategies for one source and turns
// the outcome into a ScrapingResult.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pevans/newsgather/discovery"
	"github.com/pevans/newsgather/extractor"
	"github.com/pevans/newsgather/feedparser"
	"github.com/pevans/newsgather/fetcher"
	"github.com/pevans/newsgather/logger"
	"github.com/pevans/newsgather/metrics"
	"github.com/pevans/newsgather/relevance"
	"golang.org/x/sync/errgroup"
)

// PageFetcher fetches pages and feeds. *fetcher.Fetcher implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, maxRetries int) (string, error)
	FetchFeed(ctx context.Context, rawURL string, maxRetries int) (string, error)
	TryFeed(ctx context.Context, rawURL string, attempts int) (string, error)
}

// FetcherFactory returns a fresh fetcher. The orchestrator asks for one per
// concurrent fetch stream so request counters are never shared.
type FetcherFactory func() PageFetcher

// Orchestrator runs the strategy chain. It is safe for concurrent use by
// multiple source runs.
type Orchestrator struct {
	config     *Config
	fetcherCfg *fetcher.Config
	extractor  *extractor.Extractor
	engine     *relevance.Engine
	newFetcher FetcherFactory
	log        logger.Logger
	metrics    *metrics.Metrics
	now        func() time.Time

	strategies []strategy
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) { o.log = logger.OrNop(l) }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithFetcherConfig sets the configuration for the default fetcher factory.
func WithFetcherConfig(c *fetcher.Config) Option {
	return func(o *Orchestrator) { o.fetcherCfg = c }
}

// WithFetcherFactory replaces how fetchers are created.
func WithFetcherFactory(f FetcherFactory) Option {
	return func(o *Orchestrator) { o.newFetcher = f }
}

// WithClock replaces the time source used for scrape timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an Orchestrator. Nil arguments use defaults.
func New(config *Config, ext *extractor.Extractor, engine *relevance.Engine, opts ...Option) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	if ext == nil {
		ext = extractor.New(nil, nil)
	}
	if engine == nil {
		engine = relevance.New(nil)
	}

	o := &Orchestrator{
		config:    config,
		extractor: ext,
		engine:    engine,
		log:       logger.NewNop(),
		now:       time.Now,
		strategies: []strategy{
			rssDirect{},
			governmentDiscovery{},
			feedDiscovery{},
			htmlDiscovery{},
		},
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.newFetcher == nil {
		client := fetcher.NewHTTPClient()
		cfg, log, m := o.fetcherCfg, o.log, o.metrics
		o.newFetcher = func() PageFetcher {
			return fetcher.New(cfg,
				fetcher.WithClient(client),
				fetcher.WithLogger(log),
				fetcher.WithMetrics(m))
		}
	}
	return o
}

// run is the per-source state shared by the strategies of one Run call.
type run struct {
	req       Request
	topic     relevance.TopicConfig
	src       relevance.SourceContext
	baseURL   string
	feedURL   string
	domain    string
	startedAt time.Time
	log       logger.Logger

	// stream is the fetcher for the sequential index and feed requests.
	stream PageFetcher

	// tried holds feed URLs already attempted in this run.
	tried map[string]bool

	indexOnce sync.Once
	indexHTML string
	indexErr  error
}

// index fetches the source home page once per run.
func (r *run) index(ctx context.Context, retries int) (string, error) {
	r.indexOnce.Do(func() {
		r.indexHTML, r.indexErr = r.stream.Fetch(ctx, r.baseURL, retries)
	})
	return r.indexHTML, r.indexErr
}

// siteError returns the home page fetch error, if the home page was
// requested and failed.
func (r *run) siteError() error {
	if r.indexHTML == "" {
		return r.indexErr
	}
	return nil
}

// Run executes the strategy chain for one source. It never returns an
// error: every failure is reported through the result.
func (o *Orchestrator) Run(ctx context.Context, req Request) *ScrapingResult {
	if o.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.RunTimeout)
		defer cancel()
	}

	r, err := o.newRun(req)
	if err != nil {
		o.metrics.ObserveSourceRun(false)
		return &ScrapingResult{Method: MethodRSS, Articles: []Article{}, Errors: []string{err.Error()}}
	}

	var last outcome
	for _, s := range o.strategies {
		if !s.applicable(r) {
			continue
		}
		if ctx.Err() != nil {
			method := s.method(o, r)
			last = outcome{
				method: method,
				errors: append(last.errors, fmt.Sprintf("%s: %v", method, ctx.Err())),
			}
			break
		}

		out := s.run(ctx, o, r)
		ok := len(out.retained()) > 0
		o.metrics.ObserveStrategy(out.method, ok)

		if ok {
			result := o.result(r, out)
			r.log.Info("source run succeeded",
				logger.String("method", out.method),
				logger.Int("found", result.ArticlesFound),
				logger.Int("scraped", result.ArticlesScraped),
				logger.Int("errors", len(result.Errors)))
			o.metrics.ObserveSourceRun(true)
			return result
		}

		if len(out.errors) == 0 {
			out.errors = []string{fmt.Sprintf("%s: no qualifying articles among %d candidates", out.method, out.found)}
		}
		r.log.Warn("strategy yielded no qualifying articles",
			logger.String("method", out.method),
			logger.Int("found", out.found),
			logger.Strings("errors", out.errors))
		last = out
	}

	o.metrics.ObserveSourceRun(false)
	return &ScrapingResult{
		Success:       false,
		Method:        last.method,
		ArticlesFound: last.found,
		Articles:      []Article{},
		Errors:        last.errors,
		SiteError:     r.siteError(),
	}
}

func (o *Orchestrator) newRun(req Request) (*run, error) {
	topic := req.Topic
	if topic.TopicType == relevance.TopicRegional && topic.Region == "" {
		topic.Region = req.Region
	}
	if err := topic.Validate(); err != nil {
		return nil, fmt.Errorf("invalid topic: %w", err)
	}

	feedURL := firstNonEmpty(req.FeedURL, req.Source.FeedURL)
	baseURL := siteRoot(req.Source.CanonicalDomain)
	if baseURL == "" {
		baseURL = siteRoot(feedURL)
	}
	if baseURL == "" {
		return nil, errors.New("source has neither a feed URL nor a canonical domain")
	}
	if feedURL == "" {
		feedURL = baseURL
	}

	sourceType := req.Source.SourceType
	if sourceType == "" {
		sourceType = relevance.SourceRegional
	}

	log := o.log.With(
		logger.String("source", firstNonEmpty(req.Source.Name, discovery.Domain(baseURL))),
		logger.String("topic", topic.Name))

	return &run{
		req:       req,
		topic:     topic,
		src:       relevance.SourceContext{Type: sourceType, UserSelected: req.Source.UserSelected},
		baseURL:   baseURL,
		feedURL:   feedURL,
		domain:    discovery.Domain(baseURL),
		startedAt: o.now().UTC(),
		log:       log,
		stream:    o.newFetcher(),
		tried:     map[string]bool{},
	}, nil
}

func (o *Orchestrator) result(r *run, out outcome) *ScrapingResult {
	retained := out.retained()
	articles := make([]Article, 0, len(retained))
	for _, c := range retained {
		articles = append(articles, c.ToArticle(r.domain, r.startedAt))
	}
	errs := out.errors
	if errs == nil {
		errs = []string{}
	}
	return &ScrapingResult{
		Success:         true,
		Method:          out.method,
		ArticlesFound:   out.found,
		ArticlesScraped: len(articles),
		Articles:        articles,
		Errors:          errs,
	}
}

// page is one unit of article work: a URL plus, for feed items, the item
// used to fill gaps in extraction.
type page struct {
	url  string
	item *feedparser.RawItem
}

// processPages fetches, extracts and scores pages concurrently, each with
// its own fetcher. Failures are collected, never fatal to siblings.
// Candidates keep input order.
func (o *Orchestrator) processPages(ctx context.Context, r *run, label string, pages []page) ([]CandidateArticle, []string) {
	results := make([]*CandidateArticle, len(pages))
	errs := make([]string, len(pages))

	seen := map[string]bool{}
	var g errgroup.Group
	g.SetLimit(max(o.config.Concurrency, 1))

	for i, p := range pages {
		canonical, err := discovery.CanonicalURL(p.url)
		if err != nil {
			errs[i] = fmt.Sprintf("%s: %s: %v", label, p.url, err)
			continue
		}
		if seen[canonical] {
			o.metrics.ObserveDecision(ReasonDuplicate)
			continue
		}
		seen[canonical] = true

		if ctx.Err() != nil {
			errs[i] = fmt.Sprintf("%s: %s: %v", label, p.url, ctx.Err())
			continue
		}

		g.Go(func() error {
			c, err := o.processPage(ctx, r, p, canonical)
			if err != nil {
				errs[i] = fmt.Sprintf("%s: %s: %v", label, p.url, err)
			}
			results[i] = c
			return nil
		})
	}
	_ = g.Wait()

	var candidates []CandidateArticle
	var collected []string
	for i := range pages {
		if results[i] != nil {
			candidates = append(candidates, *results[i])
		}
		if errs[i] != "" {
			collected = append(collected, errs[i])
		}
	}
	return candidates, collected
}

// processPage produces a candidate for one page, or nil when the content is
// too thin to consider. Thin content is not an error.
func (o *Orchestrator) processPage(ctx context.Context, r *run, p page, canonical string) (*CandidateArticle, error) {
	if err := discovery.ValidateArticleURL(p.url, ""); err != nil {
		return nil, err
	}

	f := o.newFetcher()
	rawHTML, fetchErr := f.Fetch(ctx, p.url, o.config.MaxRetries)

	var doc extractor.ExtractedDocument
	if fetchErr == nil {
		doc = o.extractor.Extract(rawHTML, p.url)
	}
	if p.item != nil {
		doc = mergeFeedItem(doc, *p.item, p.url, o.config.MinWords)
	}

	if doc.WordCount < o.config.MinWords {
		if fetchErr != nil {
			return nil, fetchErr
		}
		o.metrics.ObserveDecision(ReasonInsufficientContent)
		r.log.Debug("dropping thin article",
			logger.String("url", p.url),
			logger.Int("words", doc.WordCount))
		return nil, nil
	}
	if fetchErr != nil {
		r.log.Debug("using feed description after fetch failure",
			logger.String("url", p.url),
			logger.Error(fetchErr))
	}

	c := &CandidateArticle{
		Document:     doc,
		SourceURL:    p.url,
		CanonicalURL: canonical,
	}
	if doc.ContentQualityScore < o.config.MinQuality {
		c.DiscardReason = ReasonLowQuality
		o.metrics.ObserveDecision(ReasonLowQuality)
		return c, nil
	}

	decision := o.engine.Evaluate(doc, r.topic, r.src, r.req.Competing)
	c.Relevance = decision.Score
	c.Retain = decision.Retain
	c.DiscardReason = decision.Reason
	if c.Retain {
		o.metrics.ObserveDecision("retained")
	} else {
		o.metrics.ObserveDecision(decision.Reason)
	}
	return c, nil
}

// mergeFeedItem fills missing metadata from the feed item and falls back to
// the item description when extraction came up short.
func mergeFeedItem(doc extractor.ExtractedDocument, item feedparser.RawItem, pageURL string, minWords int) extractor.ExtractedDocument {
	if doc.WordCount < minWords {
		fallback := extractor.NewDocument(pageURL, item.Title, item.Description, item.Author, item.PublishedAt,
			extractor.MethodFeedDescription)
		if fallback.WordCount > doc.WordCount {
			return fallback
		}
	}

	title := firstNonEmpty(doc.Title, item.Title)
	author := firstNonEmpty(doc.Author, extractor.CleanAuthor(item.Author))
	published := doc.PublishedAt
	if published == nil {
		published = item.PublishedAt
	}
	if doc.URL == "" {
		doc.URL = pageURL
	}
	return extractor.NewDocument(doc.URL, title, doc.Body, author, published, doc.ExtractionMethod)
}

// siteRoot returns scheme://host for a URL or bare domain.
func siteRoot(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	canonical, err := discovery.CanonicalURL(raw)
	if err != nil {
		return ""
	}
	scheme, rest, _ := strings.Cut(canonical, "://")
	host, _, _ := strings.Cut(rest, "/")
	host, _, _ = strings.Cut(host, "?")
	return scheme + "://" + host + "/"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
