package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/pevans/newsgather/scraper"
	"github.com/pevans/newsgather/textutil"
)

// page is the parsed input shared by every strategy.
type page struct {
	doc     *goquery.Document
	rawHTML string
	url     string
	profile *scraper.Profile
	ld      structuredData
}

// candidate is one strategy's proposed body.
type candidate struct {
	method string
	body   string
	score  int
}

func newCandidate(method, body string) candidate {
	return candidate{method: method, body: body, score: ContentScore(body)}
}

// strategy produces zero or more candidate bodies for a page.
type strategy interface {
	Name() string
	Candidates(p *page) []candidate
}

// blockSelector picks the text-bearing elements inside a content container.
const blockSelector = "p, h2, h3, h4, blockquote, li"

// profileSelectors tries each profile content selector in order.
type profileSelectors struct{}

func (profileSelectors) Name() string { return MethodProfileSelectors }

func (profileSelectors) Candidates(p *page) []candidate {
	var out []candidate
	for _, sel := range p.profile.ContentSelectors {
		container := p.doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}
		if body := containerText(container); body != "" {
			out = append(out, newCandidate(MethodProfileSelectors, body))
		}
	}
	return out
}

// structuredBody offers the JSON-LD articleBody when the page has one.
type structuredBody struct{}

func (structuredBody) Name() string { return MethodJSONLD }

func (structuredBody) Candidates(p *page) []candidate {
	body := textutil.StripTags(p.ld.ArticleBody)
	if body == "" {
		return nil
	}
	return []candidate{newCandidate(MethodJSONLD, body)}
}

// navigationPhrases mark div text that is chrome rather than content.
var navigationPhrases = []string{
	"menu",
	"subscribe",
	"related articles",
	"sign up",
	"newsletter",
	"cookie",
	"advertisement",
	"follow us",
	"share this",
	"skip to",
	"all rights reserved",
	"most read",
}

// paragraphAggregation collects long paragraphs plus divs carrying their
// own text, skipping navigation-like divs.
type paragraphAggregation struct {
	minParagraphChars int
	minDivChars       int
}

func (paragraphAggregation) Name() string { return MethodParagraphAggregation }

func (s paragraphAggregation) Candidates(p *page) []candidate {
	root := p.doc.Find("body")
	if root.Length() == 0 {
		root = p.doc.Selection
	}

	var blocks []string
	root.Find("p, div").Each(func(_ int, el *goquery.Selection) {
		if goquery.NodeName(el) == "p" {
			text := textutil.NormalizeSpace(el.Text())
			if len(text) >= s.minParagraphChars {
				blocks = append(blocks, text)
			}
			return
		}

		text := ownText(el)
		if len(text) >= s.minDivChars && !isNavigationText(text) {
			blocks = append(blocks, text)
		}
	})

	if len(blocks) == 0 {
		return nil
	}
	return []candidate{newCandidate(MethodParagraphAggregation, strings.Join(blocks, "\n\n"))}
}

// readabilityFallback runs a readability extraction over the original HTML.
type readabilityFallback struct{}

func (readabilityFallback) Name() string { return MethodReadability }

func (readabilityFallback) Candidates(p *page) []candidate {
	parsedURL, err := url.Parse(p.url)
	if err != nil || strings.TrimSpace(p.rawHTML) == "" {
		return nil
	}

	article, err := readability.FromReader(strings.NewReader(p.rawHTML), parsedURL)
	if err != nil {
		return nil
	}

	var lines []string
	for line := range strings.SplitSeq(article.TextContent, "\n") {
		if line = textutil.NormalizeSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return []candidate{newCandidate(MethodReadability, strings.Join(lines, "\n\n"))}
}

// containerText joins the block elements of a container with blank lines,
// or returns its flattened text when it has no block children.
func containerText(container *goquery.Selection) string {
	var blocks []string
	container.Find(blockSelector).Each(func(_ int, el *goquery.Selection) {
		// list items and quotes wrapping paragraphs are read through the
		// paragraphs themselves
		if goquery.NodeName(el) != "p" && el.Find("p").Length() > 0 {
			return
		}
		if el.ParentsFiltered("p").Length() > 0 {
			return
		}
		if text := textutil.NormalizeSpace(el.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})

	if len(blocks) == 0 {
		return textutil.NormalizeSpace(container.Text())
	}
	return strings.Join(blocks, "\n\n")
}

// ownText returns the normalized text of an element's direct text nodes.
func ownText(el *goquery.Selection) string {
	var sb strings.Builder
	el.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			sb.WriteString(c.Text())
			sb.WriteByte(' ')
		}
	})
	return textutil.NormalizeSpace(sb.String())
}

func isNavigationText(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range navigationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
