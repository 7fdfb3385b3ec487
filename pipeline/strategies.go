package pipeline

import (
	"context"
	"fmt"

	"github.com/pevans/newsgather/discovery"
	"github.com/pevans/newsgather/feedparser"
	"github.com/pevans/newsgather/fetcher"
)

// outcome is what one strategy produced.
type outcome struct {
	method     string
	found      int
	candidates []CandidateArticle
	errors     []string
}

func (o outcome) retained() []CandidateArticle {
	var out []CandidateArticle
	for _, c := range o.candidates {
		if c.Retain {
			out = append(out, c)
		}
	}
	return out
}

// strategy is one step of the acquisition chain.
type strategy interface {
	applicable(r *run) bool
	method(o *Orchestrator, r *run) string
	run(ctx context.Context, o *Orchestrator, r *run) outcome
}

// rssDirect parses the configured feed URL.
type rssDirect struct{}

func (rssDirect) applicable(*run) bool { return true }

func (rssDirect) method(*Orchestrator, *run) string { return MethodRSS }

func (rssDirect) run(ctx context.Context, o *Orchestrator, r *run) outcome {
	r.tried[r.feedURL] = true
	if r.feedURL == r.baseURL {
		body, err := r.index(ctx, o.config.MaxRetries)
		return o.feedOutcome(ctx, r, MethodRSS, r.feedURL, body, err)
	}
	body, err := r.stream.Fetch(ctx, r.feedURL, o.config.MaxRetries)
	return o.feedOutcome(ctx, r, MethodRSS, r.feedURL, body, err)
}

// governmentDiscovery probes conventional feed paths on government sites.
type governmentDiscovery struct{}

func (governmentDiscovery) applicable(r *run) bool {
	return fetcher.IsGovernmentURL(r.baseURL)
}

func (governmentDiscovery) method(*Orchestrator, *run) string { return MethodGovernmentRSS }

func (governmentDiscovery) run(ctx context.Context, o *Orchestrator, r *run) outcome {
	combined := outcome{method: MethodGovernmentRSS}
	for _, candidate := range fetcher.GovernmentFeedCandidates(r.baseURL) {
		if r.tried[candidate] || ctx.Err() != nil {
			continue
		}
		r.tried[candidate] = true

		body, err := r.stream.TryFeed(ctx, candidate, o.probeRetries())
		out := o.feedOutcome(ctx, r, MethodGovernmentRSS, candidate, body, err)
		if len(out.retained()) > 0 {
			return out
		}
		combined.found += out.found
		combined.errors = append(combined.errors, out.errors...)
	}
	return combined
}

// feedDiscovery looks for feeds advertised by the home page.
type feedDiscovery struct{}

func (feedDiscovery) applicable(*run) bool { return true }

func (feedDiscovery) method(*Orchestrator, *run) string { return MethodRSSDiscovery }

func (feedDiscovery) run(ctx context.Context, o *Orchestrator, r *run) outcome {
	combined := outcome{method: MethodRSSDiscovery}

	html, err := r.index(ctx, o.config.MaxRetries)
	if err != nil {
		combined.errors = []string{fmt.Sprintf("%s: fetch home page: %v", MethodRSSDiscovery, err)}
		return combined
	}

	links := discovery.DiscoverFeedLinks(html, r.baseURL, o.config.MaxFeedLinks)
	if len(links) == 0 {
		combined.errors = []string{fmt.Sprintf("%s: no feed links on %s", MethodRSSDiscovery, r.baseURL)}
		return combined
	}

	for _, link := range links {
		if r.tried[link] || ctx.Err() != nil {
			continue
		}
		r.tried[link] = true

		body, err := r.stream.FetchFeed(ctx, link, o.config.MaxRetries)
		out := o.feedOutcome(ctx, r, MethodRSSDiscovery, link, body, err)
		if len(out.retained()) > 0 {
			return out
		}
		combined.found += out.found
		combined.errors = append(combined.errors, out.errors...)
	}
	return combined
}

// htmlDiscovery extracts article links from the home page. Sites with their
// own profile report enhanced_html.
type htmlDiscovery struct{}

func (htmlDiscovery) applicable(*run) bool { return true }

func (htmlDiscovery) method(o *Orchestrator, r *run) string {
	if o.extractor.Profiles().Lookup(r.baseURL).IsDefault() {
		return MethodHTML
	}
	return MethodEnhancedHTML
}

func (h htmlDiscovery) run(ctx context.Context, o *Orchestrator, r *run) outcome {
	profile := o.extractor.Profiles().Lookup(r.baseURL)
	out := outcome{method: h.method(o, r)}

	html, err := r.index(ctx, o.config.MaxRetries)
	if err != nil {
		out.errors = []string{fmt.Sprintf("%s: fetch home page: %v", out.method, err)}
		return out
	}

	links := discovery.DiscoverArticleLinks(html, r.baseURL, profile.LinkPatterns, o.config.MaxHTMLArticles)
	out.found = len(links)
	if len(links) == 0 {
		out.errors = []string{fmt.Sprintf("%s: no article links on %s", out.method, r.baseURL)}
		return out
	}

	pages := make([]page, len(links))
	for i, link := range links {
		pages[i] = page{url: link}
	}
	out.candidates, out.errors = o.processPages(ctx, r, out.method, pages)
	return out
}

// feedOutcome parses a fetched feed and processes its items.
func (o *Orchestrator) feedOutcome(ctx context.Context, r *run, method, feedURL, body string, fetchErr error) outcome {
	out := outcome{method: method}
	if fetchErr != nil {
		out.errors = []string{fmt.Sprintf("%s: fetch %s: %v", method, feedURL, fetchErr)}
		return out
	}

	items, err := feedparser.ParseN(body, o.config.MaxFeedItems)
	if err != nil {
		out.errors = []string{fmt.Sprintf("%s: parse %s: %v", method, feedURL, err)}
		return out
	}
	out.found = len(items)
	if len(items) == 0 {
		out.errors = []string{fmt.Sprintf("%s: %s has no usable items", method, feedURL)}
		return out
	}

	pages := make([]page, len(items))
	for i := range items {
		pages[i] = page{url: items[i].Link, item: &items[i]}
	}
	out.candidates, out.errors = o.processPages(ctx, r, method, pages)
	return out
}

func (o *Orchestrator) probeRetries() int {
	if o.fetcherCfg != nil && o.fetcherCfg.ProbeRetries > 0 {
		return o.fetcherCfg.ProbeRetries
	}
	return fetcher.DefaultConfig().ProbeRetries
}
