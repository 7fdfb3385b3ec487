// Package fetcher performs resilient HTTP retrieval against third-party news
// and government sites: identity rotation, adaptive pacing, exponential
// backoff, 403 evasion and TLS fallback.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pevans/newsgather/logger"
	"github.com/pevans/newsgather/metrics"
)

// HTTPClient is the subset of *http.Client the fetcher needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds fetcher tuning.
type Config struct {
	MaxRetries           int           `yaml:"max_retries"`
	GovernmentRetryBonus int           `yaml:"government_retry_bonus"`
	AttemptTimeout       time.Duration `yaml:"attempt_timeout"`
	BaseDelay            time.Duration `yaml:"base_delay"`
	GovernmentBaseDelay  time.Duration `yaml:"government_base_delay"`
	StepDelay            time.Duration `yaml:"step_delay"`
	JitterMax            time.Duration `yaml:"jitter_max"`
	BackoffBase          time.Duration `yaml:"backoff_base"`
	ExtraJitterMax       time.Duration `yaml:"extra_jitter_max"`
	// TLSFallbackAfter is the number of TLS failures on an explicit https
	// URL before switching to http.
	TLSFallbackAfter int   `yaml:"tls_fallback_after"`
	MinBodyBytes     int   `yaml:"min_body_bytes"`
	MaxBodyBytes     int64 `yaml:"max_body_bytes"`
	ProbeRetries     int   `yaml:"probe_retries"`
}

// DefaultConfig returns the default fetcher configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:           3,
		GovernmentRetryBonus: 2,
		AttemptTimeout:       30 * time.Second,
		BaseDelay:            1 * time.Second,
		GovernmentBaseDelay:  3 * time.Second,
		StepDelay:            500 * time.Millisecond,
		JitterMax:            1 * time.Second,
		BackoffBase:          1 * time.Second,
		ExtraJitterMax:       2 * time.Second,
		TLSFallbackAfter:     2,
		MinBodyBytes:         100,
		MaxBodyBytes:         5 << 20,
		ProbeRetries:         1,
	}
}

// FetchContext is the mutable per-fetcher state.
type FetchContext struct {
	RequestCount     int
	IsGovernmentSite bool
}

// Fetcher retrieves documents. A Fetcher owns its FetchContext; use one
// instance per concurrent fetch stream.
type Fetcher struct {
	config  *Config
	client  HTTPClient
	log     logger.Logger
	metrics *metrics.Metrics
	sleep   Sleeper
	jitter  Jitter

	mu   sync.Mutex
	fctx FetchContext
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the HTTP client.
func WithClient(c HTTPClient) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Fetcher) { f.log = logger.OrNop(l) }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// WithSleeper replaces the blocking wait used between attempts.
func WithSleeper(s Sleeper) Option {
	return func(f *Fetcher) { f.sleep = s }
}

// WithJitter replaces the random jitter source.
func WithJitter(j Jitter) Option {
	return func(f *Fetcher) { f.jitter = j }
}

// New creates a Fetcher. A nil config uses DefaultConfig.
func New(config *Config, opts ...Option) *Fetcher {
	if config == nil {
		config = DefaultConfig()
	}

	f := &Fetcher{
		config: config,
		client: NewHTTPClient(),
		log:    logger.NewNop(),
		sleep:  sleepContext,
		jitter: uniformJitter,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewHTTPClient returns the default client. There is no client-wide timeout;
// each attempt is bounded by its own context.
func NewHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = true
	transport.MaxIdleConns = 0
	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			return nil
		},
	}
}

// Context returns a snapshot of the fetcher's state.
func (f *Fetcher) Context() FetchContext {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fctx
}

// Config returns the fetcher's configuration.
func (f *Fetcher) Config() *Config {
	return f.config
}

// MaxAttempts is the attempt ceiling for a fetch against host.
func (f *Fetcher) MaxAttempts(host string, maxRetries int) int {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if IsGovernmentHost(host) {
		return maxRetries + f.config.GovernmentRetryBonus
	}
	return maxRetries
}

// Fetch retrieves rawURL, retrying up to maxRetries times (more for
// government hosts). It returns the body or a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, maxRetries int) (string, error) {
	body, _, err := f.fetch(ctx, rawURL, maxRetries, true)
	return body, err
}

// fetch makes at most maxRetries attempts, plus the government bonus when
// withBonus is set, and reports how many it made.
func (f *Fetcher) fetch(ctx context.Context, rawURL string, maxRetries int, withBonus bool) (string, int, error) {
	target, schemeAdded, err := normalizeURL(rawURL)
	if err != nil {
		return "", 0, &FetchError{URL: rawURL, Kind: KindContent, Err: err}
	}

	gov := IsGovernmentHost(target.Hostname())
	f.mu.Lock()
	f.fctx.IsGovernmentSite = gov
	f.mu.Unlock()

	limit := max(maxRetries, 1)
	if withBonus {
		limit = f.MaxAttempts(target.Hostname(), maxRetries)
	}
	category := "standard"
	if gov {
		category = "government"
	}
	log := f.log.With(logger.String("url", target.String()), logger.String("category", category))

	var (
		lastErr        error
		lastStatus     int
		consecutive403 int
		tlsFailures    int
		attemptsMade   int
		lastWas403     bool
		interrupted    bool
	)

	for attempt := 0; attempt < limit; attempt++ {
		if attempt > 0 {
			wait := f.retryDelay(attempt, gov, lastWas403)
			log.Debug("waiting before retry",
				logger.Int("attempt", attempt+1),
				logger.Duration("delay", wait))
			if err := f.sleep(ctx, wait); err != nil {
				lastErr = err
				interrupted = true
				break
			}
		}

		mode := modeBrowser
		switch {
		case consecutive403 >= 2:
			mode = modeStripped
		case gov:
			mode = modeGovernment
		}

		start := time.Now()
		body, status, err := f.attempt(ctx, target, mode)
		attemptsMade++

		if err == nil {
			if f.looksLikeErrorPage(body) {
				f.metrics.ObserveFetch(category, "error_page", time.Since(start))
				return "", attemptsMade, &FetchError{
					URL:        target.String(),
					Kind:       KindContent,
					StatusCode: status,
					Attempts:   attemptsMade,
					Err:        ErrErrorPage,
				}
			}
			f.metrics.ObserveFetch(category, "ok", time.Since(start))
			return body, attemptsMade, nil
		}

		lastErr = err
		lastStatus = status
		lastWas403 = status == http.StatusForbidden
		if lastWas403 {
			consecutive403++
		} else {
			consecutive403 = 0
		}

		outcome := "http_error"
		if status == 0 {
			outcome = "network_error"
		}
		f.metrics.ObserveFetch(category, outcome, time.Since(start))
		log.Debug("fetch attempt failed",
			logger.Int("attempt", attempt+1),
			logger.Int("status", status),
			logger.String("mode", mode.String()),
			logger.Error(err))

		if target.Scheme == "https" && status == 0 {
			if isTLSError(err) {
				tlsFailures++
			}
			if (schemeAdded && (tlsFailures > 0 || !isContextError(err))) ||
				tlsFailures >= f.config.TLSFallbackAfter {
				target.Scheme = "http"
				log.Warn("falling back to http", logger.Int("tls_failures", tlsFailures))
			}
		}

		if ctx.Err() != nil {
			break
		}
	}

	kind := KindNetwork
	if lastStatus != 0 && !interrupted {
		kind = KindHTTP
	}
	return "", attemptsMade, &FetchError{
		URL:        target.String(),
		Kind:       kind,
		StatusCode: lastStatus,
		Attempts:   attemptsMade,
		Err:        lastErr,
	}
}

// retryDelay is the blocking wait before retry number attempt: the adaptive
// pacing delay plus exponential backoff, escalated for government hosts and
// after a 403.
func (f *Fetcher) retryDelay(attempt int, gov, after403 bool) time.Duration {
	base := f.config.BaseDelay
	if gov {
		base = f.config.GovernmentBaseDelay
	}

	f.mu.Lock()
	count := f.fctx.RequestCount
	f.mu.Unlock()

	escalate := gov || after403
	d := AdaptiveDelay(base, f.config.StepDelay, count) + f.jitter(f.config.JitterMax)
	d += BackoffDelay(f.config.BackoffBase, attempt, escalate)
	if escalate {
		d += f.jitter(f.config.ExtraJitterMax)
	}
	return d
}

// attempt performs one bounded HTTP request. The returned status is 0 when
// no response was received.
func (f *Fetcher) attempt(ctx context.Context, target *url.URL, mode headerMode) (string, int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.config.AttemptTimeout)
	defer cancel()

	f.mu.Lock()
	count := f.fctx.RequestCount
	f.fctx.RequestCount++
	f.mu.Unlock()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	applyHeaders(req, target, mode, count)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", resp.StatusCode, &statusError{code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes))
	if err != nil {
		return "", 0, fmt.Errorf("failed to read body: %w", err)
	}
	return string(data), resp.StatusCode, nil
}

var titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

var errorPageMarkers = []string{
	"404 not found",
	"page not found",
	"error 404",
	"not found</h1>",
}

// looksLikeErrorPage reports whether a 2xx body is really an error page.
func (f *Fetcher) looksLikeErrorPage(body string) bool {
	trimmed := strings.TrimSpace(body)
	if len(trimmed) < f.config.MinBodyBytes {
		return true
	}

	if m := titlePattern.FindStringSubmatch(trimmed); m != nil {
		title := strings.ToLower(m[1])
		if strings.Contains(title, "404") || strings.Contains(title, "not found") {
			return true
		}
	}

	head := strings.ToLower(trimmed[:min(len(trimmed), 512)])
	for _, marker := range errorPageMarkers {
		if strings.Contains(head, marker) {
			return true
		}
	}
	return false
}

// normalizeURL adds https:// when the scheme is missing. The bool reports
// whether the scheme was added.
func normalizeURL(raw string) (*url.URL, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false, ErrInvalidURL
	}

	added := false
	if !strings.Contains(raw, "://") {
		raw = "https://" + strings.TrimPrefix(raw, "//")
		added = true
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, false, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u, added, nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
