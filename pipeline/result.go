package pipeline

import (
	"time"

	"github.com/pevans/newsgather/extractor"
	"github.com/pevans/newsgather/relevance"
)

// Top-level strategy methods reported on a ScrapingResult.
const (
	MethodRSS           = "rss"
	MethodGovernmentRSS = "government_rss_discovery"
	MethodRSSDiscovery  = "rss_discovery"
	MethodEnhancedHTML  = "enhanced_html"
	MethodHTML          = "html"
)

// ProcessingStatusNew marks articles not yet seen by the persistence
// collaborator.
const ProcessingStatusNew = "new"

// Discard reasons decided before relevance scoring.
const (
	ReasonInsufficientContent = "insufficient_content"
	ReasonLowQuality          = "low_quality"
	ReasonDuplicate           = "duplicate"
)

// SourceInfo describes the source being scraped.
type SourceInfo struct {
	Name            string               `json:"name,omitempty"`
	SourceType      relevance.SourceType `json:"source_type"`
	CanonicalDomain string               `json:"canonical_domain"`
	FeedURL         string               `json:"feed_url"`
	UserSelected    bool                 `json:"user_selected"`
}

// Request is the input for one source run.
type Request struct {
	FeedURL string                `json:"feed_url"`
	Topic   relevance.TopicConfig `json:"topic"`
	Source  SourceInfo            `json:"source"`
	Region  string                `json:"region"`

	// Competing holds the other registered regional topics.
	Competing []relevance.TopicConfig `json:"competing,omitempty"`
}

// CandidateArticle is an extracted document with its relevance verdict.
type CandidateArticle struct {
	Document      extractor.ExtractedDocument
	Relevance     relevance.RelevanceScore
	Retain        bool
	DiscardReason string
	SourceURL     string
	CanonicalURL  string
}

// ImportMetadata records how an article was acquired.
type ImportMetadata struct {
	ExtractionMethod string    `json:"extraction_method"`
	SourceDomain     string    `json:"source_domain"`
	ScrapeTimestamp  time.Time `json:"scrape_timestamp"`
	ExtractorVersion string    `json:"extractor_version"`
}

// Article is a retained candidate in its hand-off form.
type Article struct {
	Title                  string         `json:"title"`
	Body                   string         `json:"body"`
	Author                 string         `json:"author"`
	PublishedAt            *time.Time     `json:"published_at"`
	SourceURL              string         `json:"source_url"`
	CanonicalURL           string         `json:"canonical_url"`
	WordCount              int            `json:"word_count"`
	RegionalRelevanceScore int            `json:"regional_relevance_score"`
	ContentQualityScore    int            `json:"content_quality_score"`
	ProcessingStatus       string         `json:"processing_status"`
	ImportMetadata         ImportMetadata `json:"import_metadata"`
	MatchedTerms           map[string]int `json:"matched_terms,omitempty"`
}

// ToArticle converts a candidate for hand-off.
func (c CandidateArticle) ToArticle(sourceDomain string, scrapedAt time.Time) Article {
	return Article{
		Title:                  c.Document.Title,
		Body:                   c.Document.Body,
		Author:                 c.Document.Author,
		PublishedAt:            c.Document.PublishedAt,
		SourceURL:              c.SourceURL,
		CanonicalURL:           c.CanonicalURL,
		WordCount:              c.Document.WordCount,
		RegionalRelevanceScore: c.Relevance.Score,
		ContentQualityScore:    c.Document.ContentQualityScore,
		ProcessingStatus:       ProcessingStatusNew,
		ImportMetadata: ImportMetadata{
			ExtractionMethod: c.Document.ExtractionMethod,
			SourceDomain:     sourceDomain,
			ScrapeTimestamp:  scrapedAt,
			ExtractorVersion: extractor.Version,
		},
		MatchedTerms: c.Relevance.MatchedTerms,
	}
}

// ScrapingResult is the outcome of one source run. A failed result carries
// only the errors of the last strategy attempted.
type ScrapingResult struct {
	Success         bool      `json:"success"`
	Method          string    `json:"method"`
	ArticlesFound   int       `json:"articlesFound"`
	ArticlesScraped int       `json:"articlesScraped"`
	Articles        []Article `json:"articles"`
	Errors          []string  `json:"errors"`

	// SiteError is the failure to fetch the source home page on a failed
	// run. Callers use it to tell a dead site from a bad run.
	SiteError error `json:"-"`
}
