// Package discovery finds candidate article links and feed links on index
// pages and normalises article URLs for deduplication.
package discovery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultArticleLimit caps article links when the caller passes no limit.
const DefaultArticleLimit = 50

// Minimum number of hyphen-separated words in a slug to consider it
// article-like.
const minSlugWordCount = 4

// nonArticleSegments are path segments that mark listing, account and
// utility pages.
var nonArticleSegments = map[string]bool{
	"tag":        true,
	"tags":       true,
	"topic":      true,
	"topics":     true,
	"category":   true,
	"categories": true,
	"author":     true,
	"authors":    true,
	"page":       true,
	"feed":       true,
	"rss":        true,
	"sitemap":    true,
	"search":     true,
	"login":      true,
	"signin":     true,
	"signup":     true,
	"register":   true,
	"subscribe":  true,
	"newsletter": true,
	"account":    true,
	"contact":    true,
	"about":      true,
	"privacy":    true,
	"terms":      true,
	"cookies":    true,
	"advertise":  true,
	"jobs":       true,
	"wp-admin":   true,
	"wp-login":   true,
}

// nonArticleExtensions are asset extensions that are never articles.
var nonArticleExtensions = []string{
	".pdf", ".xml", ".json", ".css", ".js", ".png", ".jpg", ".jpeg", ".gif",
	".svg", ".ico", ".webp", ".woff", ".zip", ".mp3", ".mp4", ".rss", ".atom",
}

// articlePathSegments suggest article content when followed by more path.
var articlePathSegments = map[string]bool{
	"article":        true,
	"articles":       true,
	"story":          true,
	"stories":        true,
	"news":           true,
	"local-news":     true,
	"post":           true,
	"posts":          true,
	"blog":           true,
	"press":          true,
	"press-release":  true,
	"press-releases": true,
	"newsroom":       true,
	"announcements":  true,
	"government":     true,
}

// datePathPattern matches /2024/05/02/headline and /2024/05/headline.
var datePathPattern = regexp.MustCompile(`/\d{4}/\d{2}(/\d{2})?/[^/]+`)

// articleIDPattern matches a trailing numeric story id such as -1234567 or
// /c1234567.
var articleIDPattern = regexp.MustCompile(`[-/][a-z]?\d{5,}(\.html?)?$`)

// DiscoverArticleLinks returns same-site links on the page that look like
// articles. When patterns is non-empty it alone decides what is an article.
// Results are canonical, deduplicated and in page order, capped at limit.
func DiscoverArticleLinks(rawHTML, baseURL string, patterns []*regexp.Regexp, limit int) []string {
	if limit <= 0 {
		limit = DefaultArticleLimit
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return []string{}
	}
	base := documentBase(doc, baseURL)
	self, _ := CanonicalURL(baseURL)

	seen := map[string]bool{}
	links := []string{}
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if skipHref(href) {
			return true
		}

		link := resolve(base, href)
		if !isHTTP(link) || !SameSite(link, baseURL) {
			return true
		}
		if canonical, err := CanonicalURL(link); err == nil {
			link = canonical
		}
		if link == self || seen[link] || !IsArticleURL(link, patterns) {
			return true
		}

		seen[link] = true
		links = append(links, link)
		return len(links) < limit
	})

	return links
}

// IsArticleURL reports whether a URL is likely an article page. Explicit
// patterns, when given, decide alone; otherwise path heuristics are used.
func IsArticleURL(pageURL string, patterns []*regexp.Regexp) bool {
	if len(patterns) > 0 {
		for _, p := range patterns {
			if p.MatchString(pageURL) {
				return true
			}
		}
		return false
	}

	path := strings.TrimRight(pathOf(pageURL), "/")
	if path == "" {
		return false
	}
	lowerPath := strings.ToLower(path)
	if isNonArticlePath(lowerPath) {
		return false
	}

	segments := strings.Split(strings.TrimLeft(lowerPath, "/"), "/")
	if len(segments) == 1 && !hasLongSlug(segments[0]) && !articleIDPattern.MatchString(lowerPath) {
		return false
	}

	return datePathPattern.MatchString(lowerPath) ||
		hasArticlePathSegment(segments) ||
		hasLongSlugInPath(segments) ||
		articleIDPattern.MatchString(lowerPath)
}

func isNonArticlePath(lowerPath string) bool {
	for seg := range strings.SplitSeq(strings.TrimLeft(lowerPath, "/"), "/") {
		if nonArticleSegments[seg] {
			return true
		}
	}
	for _, ext := range nonArticleExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			return true
		}
	}
	return false
}

// hasArticlePathSegment checks for a known article segment followed by more
// path.
func hasArticlePathSegment(segments []string) bool {
	last := len(segments) - 1
	for i, seg := range segments {
		if articlePathSegments[seg] && i < last {
			return true
		}
	}
	return false
}

func hasLongSlug(segment string) bool {
	return len(strings.Split(segment, "-")) >= minSlugWordCount
}

func hasLongSlugInPath(segments []string) bool {
	for _, seg := range segments {
		if hasLongSlug(seg) {
			return true
		}
	}
	return false
}

// documentBase honours a <base href> element when present.
func documentBase(doc *goquery.Document, baseURL string) string {
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if resolved := resolve(baseURL, strings.TrimSpace(href)); isHTTP(resolved) {
			return resolved
		}
	}
	return baseURL
}

func skipHref(href string) bool {
	href = strings.TrimSpace(strings.ToLower(href))
	if href == "" || strings.HasPrefix(href, "#") {
		return true
	}
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:", "sms:", "whatsapp:"} {
		if strings.HasPrefix(href, prefix) {
			return true
		}
	}
	return false
}

// resolve resolves href against base. When either fails to parse it falls
// back to joining the two strings.
func resolve(base, href string) string {
	href = strings.TrimSpace(href)
	baseURL, err := url.Parse(base)
	if err != nil {
		return naiveJoin(base, href)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return naiveJoin(base, href)
	}
	return baseURL.ResolveReference(ref).String()
}

func naiveJoin(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		scheme, _, found := strings.Cut(base, "://")
		if !found {
			scheme = "https"
		}
		return scheme + ":" + href
	}
	if strings.HasPrefix(href, "/") {
		return originOf(base) + href
	}
	return strings.TrimRight(base, "/") + "/" + href
}

// originOf returns scheme://host of a possibly unparsable URL.
func originOf(raw string) string {
	scheme, rest, found := strings.Cut(raw, "://")
	if !found {
		host, _, _ := strings.Cut(raw, "/")
		return host
	}
	host, _, _ := strings.Cut(rest, "/")
	return scheme + "://" + host
}

// pathOf returns the path of a possibly unparsable URL.
func pathOf(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		return u.Path
	}
	rest := raw
	if _, after, found := strings.Cut(raw, "://"); found {
		rest = after
	}
	_, path, found := strings.Cut(rest, "/")
	if !found {
		return ""
	}
	path, _, _ = strings.Cut(path, "?")
	path, _, _ = strings.Cut(path, "#")
	return "/" + path
}

func isHTTP(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
