package extractor

import (
	"regexp"
	"strings"

	"github.com/pevans/newsgather/textutil"
)

var bylinePrefix = regexp.MustCompile(`(?i)^(by|written by|words by|reporter:?)\s+`)

// ParseAuthors splits a single author string into multiple authors if it
// contains common delimiters.
func ParseAuthors(authorText string) []string {
	if authorText == "" {
		return []string{}
	}

	authors := []string{}

	// Try splitting by ", " first
	if strings.Contains(authorText, ", ") {
		for part := range strings.SplitSeq(authorText, ", ") {
			part = strings.TrimSpace(part)
			if part != "" {
				authors = append(authors, part)
			}
		}
		return authors
	}

	// Try splitting by " and "
	if strings.Contains(authorText, " and ") {
		for part := range strings.SplitSeq(authorText, " and ") {
			part = strings.TrimSpace(part)
			if part != "" {
				authors = append(authors, part)
			}
		}
		return authors
	}

	return []string{strings.TrimSpace(authorText)}
}

// CleanAuthor strips byline prefixes and normalises a raw author string to
// a comma-separated list. Implausibly long values are discarded.
func CleanAuthor(raw string) string {
	s := textutil.NormalizeSpace(raw)
	s = bylinePrefix.ReplaceAllString(s, "")
	if s == "" || len(s) > 120 {
		return ""
	}
	return strings.Join(ParseAuthors(s), ", ")
}
