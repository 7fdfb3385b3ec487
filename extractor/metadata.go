package extractor

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/newsgather/scraper"
	"github.com/pevans/newsgather/textutil"
)

// articleTypes are the schema.org types read from JSON-LD.
var articleTypes = map[string]bool{
	"NewsArticle":          true,
	"Article":              true,
	"ReportageNewsArticle": true,
	"AnalysisNewsArticle":  true,
	"BlogPosting":          true,
}

// structuredData holds the fields read from a JSON-LD article block.
type structuredData struct {
	Headline      string
	Author        string
	DatePublished string
	ArticleBody   string
}

// extractJSONLD reads the first NewsArticle-like object from the page's
// JSON-LD scripts. Invalid JSON is skipped.
func extractJSONLD(doc *goquery.Document) structuredData {
	var found structuredData

	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return true
		}

		var data any
		if err := json.Unmarshal([]byte(text), &data); err != nil {
			return true
		}

		for _, obj := range jsonLDObjects(data) {
			if !isArticleType(obj["@type"]) {
				continue
			}
			found.Headline, _ = obj["headline"].(string)
			found.Author = jsonLDAuthor(obj["author"])
			found.DatePublished, _ = obj["datePublished"].(string)
			found.ArticleBody, _ = obj["articleBody"].(string)
			return false
		}
		return true
	})

	found.Headline = textutil.NormalizeSpace(found.Headline)
	return found
}

// jsonLDObjects flattens arrays and @graph containers into a list of
// objects.
func jsonLDObjects(data any) []map[string]any {
	var out []map[string]any
	switch v := data.(type) {
	case []any:
		for _, item := range v {
			out = append(out, jsonLDObjects(item)...)
		}
	case map[string]any:
		out = append(out, v)
		if graph, ok := v["@graph"]; ok {
			out = append(out, jsonLDObjects(graph)...)
		}
	}
	return out
}

func isArticleType(t any) bool {
	switch v := t.(type) {
	case string:
		return articleTypes[v]
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && articleTypes[s] {
				return true
			}
		}
	}
	return false
}

// jsonLDAuthor reads an author given as a string, a Person object or a list
// of either.
func jsonLDAuthor(v any) string {
	switch a := v.(type) {
	case string:
		return a
	case map[string]any:
		name, _ := a["name"].(string)
		return name
	case []any:
		var names []string
		for _, item := range a {
			if name := jsonLDAuthor(item); name != "" {
				names = append(names, name)
			}
		}
		return strings.Join(names, ", ")
	}
	return ""
}

var titleSeparators = []string{" | ", " - ", " – ", " — ", " :: ", " » "}

// extractTitle prefers structured data, then profile selectors, then the
// first h1 and og:title, then the page title trimmed at its first separator.
func extractTitle(doc *goquery.Document, profile *scraper.Profile, ld structuredData) string {
	if ld.Headline != "" {
		return ld.Headline
	}
	for _, sel := range profile.TitleSelectors {
		if title := firstText(doc, sel); title != "" {
			return title
		}
	}
	if title := firstText(doc, "h1"); title != "" {
		return title
	}
	if og := metaContent(doc, "og:title"); og != "" {
		return og
	}
	return trimTitle(textutil.NormalizeSpace(doc.Find("title").First().Text()))
}

// trimTitle cuts a page title at the earliest site-name separator.
func trimTitle(title string) string {
	cut := len(title)
	for _, sep := range titleSeparators {
		if i := strings.Index(title, sep); i > 0 && i < cut {
			cut = i
		}
	}
	return strings.TrimSpace(title[:cut])
}

var genericAuthorSelectors = []string{".byline", "[rel='author']", ".author", "[itemprop='author']"}

func extractAuthor(doc *goquery.Document, profile *scraper.Profile, ld structuredData) string {
	if author := CleanAuthor(ld.Author); author != "" {
		return author
	}
	for _, sel := range append(append([]string{}, profile.AuthorSelectors...), genericAuthorSelectors...) {
		if author := CleanAuthor(firstText(doc, sel)); author != "" {
			return author
		}
	}
	return CleanAuthor(metaContent(doc, "author"))
}

var genericDateMeta = []string{"article:published_time", "datePublished", "date", "dc.date", "parsely-pub-date"}

func extractDate(doc *goquery.Document, profile *scraper.Profile, ld structuredData) *time.Time {
	if t := plausibleDate(textutil.ParseDate(ld.DatePublished)); t != nil {
		return t
	}
	for _, sel := range append(append([]string{}, profile.DateSelectors...), "time[datetime]") {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		raw := s.AttrOr("datetime", textutil.NormalizeSpace(s.Text()))
		if t := plausibleDate(textutil.ParseDate(raw)); t != nil {
			return t
		}
	}
	for _, name := range genericDateMeta {
		if t := plausibleDate(textutil.ParseDate(metaContent(doc, name))); t != nil {
			return t
		}
	}
	return nil
}

// plausibleDate rejects dates before 1990 or more than a day in the future.
func plausibleDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	minDate := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	if t.Before(minDate) || t.After(time.Now().Add(24*time.Hour)) {
		return nil
	}
	return t
}

func firstText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return textutil.NormalizeSpace(doc.Find(selector).First().Text())
}

// metaContent reads a meta tag by property, then by name, then by itemprop.
func metaContent(doc *goquery.Document, key string) string {
	for _, attr := range []string{"property", "name", "itemprop"} {
		sel := fmt.Sprintf("meta[%s='%s']", attr, key)
		if v := strings.TrimSpace(doc.Find(sel).AttrOr("content", "")); v != "" {
			return v
		}
	}
	return ""
}
