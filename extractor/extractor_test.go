package extractor

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pevans/newsgather/scraper"
	"github.com/pevans/newsgather/textutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: a paragraph of exactly 40 words
func fortyWords(i int) string {
	sentence := fmt.Sprintf("Residents in ward %d gathered at the town hall meeting.", i)
	return strings.TrimSpace(strings.Repeat(sentence+" ", 4))
}

// Test helper: configuration without the readability fallback
func noReadability() *Config {
	return &Config{MinParagraphChars: 40, MinDivChars: 120, FallbackThreshold: 50}
}

// Test helper: wrap body markup in a page
func htmlPage(head, body string) string {
	return "<!doctype html><html><head>" + head + "</head><body>" + body + "</body></html>"
}

// TestExtract_ParagraphAggregationFallback verifies a page with no matching
// selectors falls through to paragraph aggregation
func TestExtract_ParagraphAggregationFallback(t *testing.T) {
	var paras strings.Builder
	for i := range 5 {
		paras.WriteString("<p>" + fortyWords(i) + "</p>")
	}
	raw := htmlPage("<title>Ward meetings | Local Paper</title>",
		`<div class="wrapper"><div class="col">`+paras.String()+`</div></div>`)

	doc := New(nil, nil).Extract(raw, "https://unknown-paper.example/news/ward-meetings")

	assert.Equal(t, MethodParagraphAggregation, doc.ExtractionMethod)
	assert.NotEmpty(t, doc.Body)
	assert.Equal(t, 200, doc.WordCount)
	assert.Equal(t, textutil.CountWords(doc.Body), doc.WordCount)
	assert.Greater(t, doc.ContentQualityScore, 0)
	assert.Len(t, textutil.Paragraphs(doc.Body), 5)
	assert.Equal(t, "Ward meetings", doc.Title)
}

// TestExtract_ProfileSelectors verifies a matching content selector wins
// without fallback
func TestExtract_ProfileSelectors(t *testing.T) {
	var paras strings.Builder
	for i := range 6 {
		paras.WriteString("<p>" + fortyWords(i) + "</p>")
	}
	raw := htmlPage("", `<nav><p>`+fortyWords(99)+`</p></nav>
		<article><h1>Council approves seafront plan</h1>`+paras.String()+`</article>
		<footer><p>Copyright notice for the whole site goes in this footer text.</p></footer>`)

	doc := New(nil, nil).Extract(raw, "https://unknown-paper.example/news/plan")

	assert.Equal(t, MethodProfileSelectors, doc.ExtractionMethod)
	assert.Equal(t, "Council approves seafront plan", doc.Title)
	assert.NotContains(t, doc.Body, "ward 99", "excluded nav content must not leak")
	assert.NotContains(t, doc.Body, "Copyright")
	assert.Contains(t, doc.Body, "ward 0")
}

// TestExtract_JSONLDPreferred verifies structured data beats selectors for
// title, author and date
func TestExtract_JSONLDPreferred(t *testing.T) {
	ld := `<script type="application/ld+json">
	{"@context":"https://schema.org","@graph":[
	  {"@type":"WebPage","name":"ignored"},
	  {"@type":["NewsArticle"],"headline":"Structured headline wins",
	   "author":[{"@type":"Person","name":"Jane Smith"},{"@type":"Person","name":"Tom Jones"}],
	   "datePublished":"2024-05-02T08:15:00Z"}
	]}</script>`
	raw := htmlPage(ld, `<article><h1>Selector headline</h1>
		<p class="byline">By Someone Else</p>
		<time datetime="2023-01-01T00:00:00Z">1 Jan</time>
		<p>`+fortyWords(1)+`</p></article>`)

	doc := New(nil, nil).Extract(raw, "https://example.com/news/1")

	assert.Equal(t, "Structured headline wins", doc.Title)
	assert.Equal(t, "Jane Smith, Tom Jones", doc.Author)
	require.NotNil(t, doc.PublishedAt)
	assert.True(t, time.Date(2024, 5, 2, 8, 15, 0, 0, time.UTC).Equal(*doc.PublishedAt))
}

// TestExtract_JSONLDArticleBody verifies articleBody competes as a candidate
func TestExtract_JSONLDArticleBody(t *testing.T) {
	var body []string
	for i := range 6 {
		body = append(body, fortyWords(i))
	}
	ld := `<script type="application/ld+json">{"@type":"NewsArticle","headline":"H",` +
		`"articleBody":"` + strings.Join(body, `\n\n`) + `"}</script>`
	raw := htmlPage(ld, `<div id="app">Loading</div>`)

	doc := New(nil, noReadability()).Extract(raw, "https://example.com/news/2")

	assert.Equal(t, MethodJSONLD, doc.ExtractionMethod)
	assert.Equal(t, 240, doc.WordCount)
}

// TestExtract_StripsNoise verifies scripts, styles and comments never reach
// the body
func TestExtract_StripsNoise(t *testing.T) {
	raw := htmlPage(`<style>.x{color:red} stylewords</style>`,
		`<article><!-- hidden comment words -->
		<p>`+fortyWords(1)+`</p>
		<script>var trackingWords = "scriptwords";</script>
		<p>`+fortyWords(2)+`</p></article>`)

	doc := New(nil, noReadability()).Extract(raw, "https://example.com/news/3")

	assert.NotContains(t, doc.Body, "scriptwords")
	assert.NotContains(t, doc.Body, "stylewords")
	assert.NotContains(t, doc.Body, "hidden comment")
	assert.Equal(t, 80, doc.WordCount)
}

// TestExtract_ProfileExcludes verifies profile-specific regions are removed
func TestExtract_ProfileExcludes(t *testing.T) {
	registry := scraper.NewRegistry(scraper.DefaultProfile(), []scraper.SourceProfile{{
		Name:             "local",
		Domains:          []string{"local.example"},
		ContentSelectors: []string{".story"},
		TitleSelectors:   []string{".story-title"},
		AuthorSelectors:  []string{".who"},
		ExcludeSelectors: []string{".promo"},
	}}, nil)

	var paras strings.Builder
	for i := range 6 {
		paras.WriteString("<p>" + fortyWords(i) + "</p>")
		if i == 2 {
			paras.WriteString(`<div class="promo"><p>Buy our souvenir calendar today, limited stock remains for readers.</p></div>`)
		}
	}
	raw := htmlPage("", `<h1>Site name</h1><div class="story"><h2 class="story-title">Bus route saved</h2>
		<span class="who">by Ann Lee</span>`+paras.String()+`</div>`)

	doc := New(registry, nil).Extract(raw, "https://www.local.example/news/bus")

	assert.Equal(t, "Bus route saved", doc.Title)
	assert.Equal(t, "Ann Lee", doc.Author)
	assert.NotContains(t, doc.Body, "souvenir")
	assert.Equal(t, MethodProfileSelectors, doc.ExtractionMethod)
}

// TestExtract_ExcludedRegionsSkippedForMetadata verifies a related-stories
// rail removed by the profile cannot supply the title, author or date
func TestExtract_ExcludedRegionsSkippedForMetadata(t *testing.T) {
	registry := scraper.NewRegistry(scraper.DefaultProfile(), []scraper.SourceProfile{{
		Name:             "rail",
		Domains:          []string{"rail.example"},
		ContentSelectors: []string{".story"},
		ExcludeSelectors: []string{".related"},
	}}, nil)

	var paras strings.Builder
	for i := range 6 {
		paras.WriteString("<p>" + fortyWords(i) + "</p>")
	}
	raw := htmlPage("", `<div class="related"><h1>Pier closes for winter</h1>
		<span class="byline">by Rail Writer</span><time datetime="2021-06-01T08:00:00Z">1 June 2021</time></div>
		<div class="story"><h1>Bus route saved</h1><span class="byline">by Ann Lee</span>
		<time datetime="2024-03-05T09:30:00Z">5 March 2024</time>`+paras.String()+`</div>`)

	doc := New(registry, nil).Extract(raw, "https://www.rail.example/news/bus")

	assert.Equal(t, "Bus route saved", doc.Title)
	assert.Equal(t, "Ann Lee", doc.Author)
	require.NotNil(t, doc.PublishedAt)
	assert.True(t, time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC).Equal(*doc.PublishedAt))
	assert.NotContains(t, doc.Body, "Pier closes")
}

// TestExtract_NoContent verifies total failure yields an empty document
// rather than an error
func TestExtract_NoContent(t *testing.T) {
	for _, raw := range []string{
		"",
		"<html><body></body></html>",
		htmlPage("<title>Empty</title>", "<div>short</div>"),
	} {
		doc := New(nil, noReadability()).Extract(raw, "https://example.com/empty")

		assert.Equal(t, 0, doc.ContentQualityScore, raw)
		assert.Equal(t, MethodNone, doc.ExtractionMethod, raw)
		assert.Equal(t, textutil.CountWords(doc.Body), doc.WordCount, raw)
		assert.Empty(t, doc.Body, raw)
		assert.Equal(t, "https://example.com/empty", doc.URL)
	}
}

// TestExtract_NavigationDivsSkipped verifies the navigation phrase filter
func TestExtract_NavigationDivsSkipped(t *testing.T) {
	nav := "Subscribe to our newsletter for the latest headlines delivered to your inbox every morning, plus offers from our partners and more."
	content := "The new library opened its doors on Saturday after three years of building work, with hundreds of residents queuing outside."
	raw := htmlPage("", `<div class="x">`+nav+`</div><div class="y">`+content+`</div>`)

	doc := New(nil, &Config{MinParagraphChars: 40, MinDivChars: 100, FallbackThreshold: 50}).
		Extract(raw, "https://example.com/news/library")

	assert.Contains(t, doc.Body, "new library")
	assert.NotContains(t, doc.Body, "Subscribe")
}

// TestExtract_TitleAndDateFallbacks verifies generic metadata fallbacks
func TestExtract_TitleAndDateFallbacks(t *testing.T) {
	raw := htmlPage(`<title>Harbour dredging starts - Coastal Times</title>
		<meta property="article:published_time" content="2024-04-10T12:00:00Z">
		<meta name="author" content="By Sam Hill">`,
		`<div><p>`+fortyWords(1)+`</p></div>`)

	doc := New(nil, nil).Extract(raw, "https://example.com/news/harbour")

	assert.Equal(t, "Harbour dredging starts", doc.Title)
	assert.Equal(t, "Sam Hill", doc.Author)
	require.NotNil(t, doc.PublishedAt)
	assert.Equal(t, 2024, doc.PublishedAt.Year())
}

// TestExtract_ImplausibleDateIgnored verifies dates outside the sane range
// are dropped
func TestExtract_ImplausibleDateIgnored(t *testing.T) {
	raw := htmlPage("", `<article><time datetime="1970-01-01T00:00:00Z"></time><p>`+fortyWords(1)+`</p></article>`)
	doc := New(nil, nil).Extract(raw, "https://example.com/news/old")
	assert.Nil(t, doc.PublishedAt)
}

// TestTrimTitle verifies separator trimming
func TestTrimTitle(t *testing.T) {
	assert.Equal(t, "Story", trimTitle("Story | Site"))
	assert.Equal(t, "Story", trimTitle("Story - Section | Site"))
	assert.Equal(t, "Well-being week", trimTitle("Well-being week – Council"))
	assert.Equal(t, "No separator", trimTitle("No separator"))
	assert.Equal(t, "", trimTitle(""))
}
