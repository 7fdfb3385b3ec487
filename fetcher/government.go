package fetcher

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/pevans/newsgather/feedparser"
)

var governmentHostPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(^|\.)gov$`),
	regexp.MustCompile(`(^|\.)gov\.[a-z]{2,3}$`),
	regexp.MustCompile(`(^|\.)gouv\.[a-z]{2}$`),
	regexp.MustCompile(`(^|\.)(police|nhs|parliament|mod)\.uk$`),
	regexp.MustCompile(`(^|\.)gc\.ca$`),
	regexp.MustCompile(`(^|\.)mil$`),
}

// governmentFeedPaths are the conventional feed locations probed on
// government sites, whose feeds are rarely linked from the page head.
var governmentFeedPaths = []string{
	"/rss",
	"/rss.xml",
	"/feed",
	"/feed.xml",
	"/atom.xml",
	"/news/rss",
	"/news/rss.xml",
	"/news/feed",
	"/news.rss",
	"/rss/news",
	"/feeds/news.xml",
	"/index.xml",
}

// IsGovernmentHost reports whether host belongs to a government domain.
func IsGovernmentHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	for _, p := range governmentHostPatterns {
		if p.MatchString(host) {
			return true
		}
	}
	return false
}

// IsGovernmentURL reports whether rawURL points at a government domain.
func IsGovernmentURL(rawURL string) bool {
	target, _, err := normalizeURL(rawURL)
	if err != nil {
		return false
	}
	return IsGovernmentHost(target.Hostname())
}

// GovernmentFeedCandidates lists the probe URLs for a site, rooted at the
// scheme and host of baseURL.
func GovernmentFeedCandidates(baseURL string) []string {
	target, _, err := normalizeURL(baseURL)
	if err != nil {
		return nil
	}

	root := url.URL{Scheme: target.Scheme, Host: target.Host}
	candidates := make([]string, 0, len(governmentFeedPaths))
	for _, p := range governmentFeedPaths {
		root.Path = p
		candidates = append(candidates, root.String())
	}
	return candidates
}

// FetchFeed fetches rawURL and accepts the body only when it carries an RSS
// or Atom root marker.
func (f *Fetcher) FetchFeed(ctx context.Context, rawURL string, maxRetries int) (string, error) {
	return f.fetchFeed(ctx, rawURL, maxRetries, true)
}

// TryFeed is FetchFeed with an exact attempt budget: the government retry
// bonus is not added. Guessed feed paths on government hosts go through it.
func (f *Fetcher) TryFeed(ctx context.Context, rawURL string, attempts int) (string, error) {
	return f.fetchFeed(ctx, rawURL, attempts, false)
}

func (f *Fetcher) fetchFeed(ctx context.Context, rawURL string, maxRetries int, withBonus bool) (string, error) {
	body, attempts, err := f.fetch(ctx, rawURL, maxRetries, withBonus)
	if err != nil {
		return "", err
	}
	if !feedparser.LooksLikeFeed(body) {
		return "", &FetchError{URL: rawURL, Kind: KindContent, Attempts: attempts, Err: ErrNotFeed}
	}
	return body, nil
}
