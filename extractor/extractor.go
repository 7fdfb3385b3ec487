// Package extractor turns raw HTML into a normalized ExtractedDocument using
// per-site profiles and an ordered chain of body extraction strategies.
package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/newsgather/logger"
	"github.com/pevans/newsgather/scraper"
	"golang.org/x/net/html"
)

// Version is stamped into import metadata so stored articles record which
// extractor produced them.
const Version = "2.3.0"

// Config holds extraction tuning.
type Config struct {
	MinParagraphChars int  `yaml:"min_paragraph_chars"`
	MinDivChars       int  `yaml:"min_div_chars"`
	FallbackThreshold int  `yaml:"fallback_threshold"`
	EnableReadability bool `yaml:"enable_readability"`
}

// DefaultConfig returns the default extraction configuration.
func DefaultConfig() *Config {
	return &Config{
		MinParagraphChars: 40,
		MinDivChars:       120,
		FallbackThreshold: 50,
		EnableReadability: true,
	}
}

// Extractor extracts documents. It holds no per-call state and is safe for
// concurrent use.
type Extractor struct {
	profiles *scraper.Registry
	config   *Config
	log      logger.Logger

	primary   []strategy
	fallbacks []strategy
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Extractor) { e.log = logger.OrNop(l) }
}

// New creates an Extractor. Nil arguments fall back to the built-in
// profiles and DefaultConfig.
func New(profiles *scraper.Registry, config *Config, opts ...Option) *Extractor {
	if profiles == nil {
		profiles = scraper.DefaultRegistry()
	}
	if config == nil {
		config = DefaultConfig()
	}

	e := &Extractor{
		profiles: profiles,
		config:   config,
		log:      logger.NewNop(),
		primary:  []strategy{profileSelectors{}, structuredBody{}},
		fallbacks: []strategy{
			paragraphAggregation{
				minParagraphChars: config.MinParagraphChars,
				minDivChars:       config.MinDivChars,
			},
		},
	}
	if config.EnableReadability {
		e.fallbacks = append(e.fallbacks, readabilityFallback{})
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Profiles returns the profile registry in use.
func (e *Extractor) Profiles() *scraper.Registry {
	return e.profiles
}

// Extract produces a document from rawHTML. It never fails: when no strategy
// finds content the body is empty and the quality score is 0.
func (e *Extractor) Extract(rawHTML, pageURL string) ExtractedDocument {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		e.log.Debug("failed to parse html", logger.String("url", pageURL), logger.Error(err))
		return NewDocument(pageURL, "", "", "", nil, MethodNone)
	}

	profile := e.profiles.Lookup(pageURL)
	p := &page{
		doc:     doc,
		rawHTML: rawHTML,
		url:     pageURL,
		profile: profile,
		ld:      extractJSONLD(doc),
	}

	stripNoise(doc)
	for _, sel := range profile.ExcludeSelectors {
		if sel != "" {
			doc.Find(sel).Remove()
		}
	}

	title := extractTitle(doc, profile, p.ld)
	author := extractAuthor(doc, profile, p.ld)
	published := extractDate(doc, profile, p.ld)

	best := e.runChain(p)
	if best.body == "" {
		e.log.Debug("no content found",
			logger.String("url", pageURL),
			logger.String("profile", profile.Name))
		return NewDocument(pageURL, title, "", author, published, MethodNone)
	}

	e.log.Debug("extracted document",
		logger.String("url", pageURL),
		logger.String("profile", profile.Name),
		logger.String("method", best.method),
		logger.Int("content_score", best.score))
	return NewDocument(pageURL, title, best.body, author, published, best.method)
}

// runChain runs the primary strategies and, while the best score is below
// the threshold, each fallback in turn. The highest score wins; ties keep
// the earlier candidate.
func (e *Extractor) runChain(p *page) candidate {
	var best candidate
	consider := func(s strategy) {
		for _, c := range s.Candidates(p) {
			if c.body != "" && (best.body == "" || c.score > best.score) {
				best = c
			}
		}
	}

	for _, s := range e.primary {
		consider(s)
	}
	for _, s := range e.fallbacks {
		if best.body != "" && best.score >= e.config.FallbackThreshold {
			break
		}
		consider(s)
	}
	return best
}

// stripNoise removes scripts, styles and comments. JSON-LD must be read
// before this runs.
func stripNoise(doc *goquery.Document) {
	doc.Find("script, style, noscript, template, svg, iframe").Remove()

	isComment := func(_ int, s *goquery.Selection) bool {
		return len(s.Nodes) > 0 && s.Nodes[0].Type == html.CommentNode
	}
	doc.Contents().FilterFunction(isComment).Remove()
	doc.Find("*").Contents().FilterFunction(isComment).Remove()
}
