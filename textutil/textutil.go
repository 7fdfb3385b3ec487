// Package textutil holds the text normalisation helpers shared by the feed
// parser, extractor and relevance engine.
package textutil

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	tagPattern        = regexp.MustCompile(`(?s)<[^>]*>`)
	blankLinesPattern = regexp.MustCompile(`\n\s*\n`)
)

// CountWords returns the number of whitespace-separated words in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// NormalizeSpace collapses every run of whitespace to a single space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripTags removes markup and decodes entities, keeping paragraph breaks
// where block elements ended.
func StripTags(s string) string {
	s = strings.NewReplacer(
		"</p>", "\n\n", "</P>", "\n\n",
		"<br>", "\n", "<br/>", "\n", "<br />", "\n",
	).Replace(s)
	s = html.UnescapeString(tagPattern.ReplaceAllString(s, " "))

	var paragraphs []string
	for _, block := range blankLinesPattern.Split(s, -1) {
		if p := NormalizeSpace(block); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

// Paragraphs splits text on blank lines, dropping empty blocks.
func Paragraphs(s string) []string {
	var out []string
	for _, block := range blankLinesPattern.Split(s, -1) {
		if p := strings.TrimSpace(block); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseDate parses the date formats seen in feeds, meta tags and JSON-LD.
// Strings without a zone are read as UTC. It returns nil when nothing
// matches.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
