package feedparser

import (
	"html"
	"regexp"
	"strings"

	"github.com/pevans/newsgather/textutil"
)

var (
	blockPattern = regexp.MustCompile(`(?is)<(item|entry)(?:\s[^>]*)?>(.*?)</(?:item|entry)>`)
	cdataPattern = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)
	linkTag      = regexp.MustCompile(`(?is)<link\b([^>]*)/?>`)
	hrefAttr     = regexp.MustCompile(`(?i)\bhref\s*=\s*["']([^"']+)["']`)
	relAttr      = regexp.MustCompile(`(?i)\brel\s*=\s*["']([^"']+)["']`)
)

// tagPatterns holds one matcher per element name read from an item block.
var tagPatterns = map[string]*regexp.Regexp{}

func init() {
	for _, tag := range []string{
		"title", "link", "guid", "id", "description", "summary", "content",
		"content:encoded", "author", "dc:creator", "name", "pubDate",
		"published", "updated", "dc:date",
	} {
		q := regexp.QuoteMeta(tag)
		tagPatterns[tag] = regexp.MustCompile(`(?is)<` + q + `(?:\s[^>]*)?>(.*?)</` + q + `>`)
	}
}

// parseLenient matches item and entry blocks structurally. The bool is false
// when the document has neither feed markers nor item blocks.
func parseLenient(raw string, maxItems int) ([]RawItem, bool) {
	blocks := blockPattern.FindAllStringSubmatch(raw, maxItems)
	if len(blocks) == 0 {
		return []RawItem{}, LooksLikeFeed(raw)
	}

	items := make([]RawItem, 0, len(blocks))
	for _, block := range blocks {
		item := parseBlock(strings.ToLower(block[1]) == "entry", block[2])
		if item.Valid() {
			items = append(items, item)
		}
	}
	return items, true
}

func parseBlock(atom bool, block string) RawItem {
	item := RawItem{
		Title: textutil.NormalizeSpace(textutil.StripTags(tagContent(block, "title"))),
	}

	if atom {
		item.Link = atomLink(block)
	} else {
		item.Link = strings.TrimSpace(tagContent(block, "link"))
	}
	if item.Link == "" {
		guid := strings.TrimSpace(firstTag(block, "guid", "id"))
		if strings.HasPrefix(guid, "http://") || strings.HasPrefix(guid, "https://") {
			item.Link = guid
		}
	}
	item.Link = html.UnescapeString(item.Link)

	item.Description = textutil.StripTags(firstTag(block, "description", "summary", "content:encoded", "content"))

	author := firstTag(block, "dc:creator", "author")
	if atom {
		if name := tagContent(author, "name"); name != "" {
			author = name
		}
	}
	item.Author = textutil.NormalizeSpace(textutil.StripTags(author))

	item.Published = strings.TrimSpace(firstTag(block, "pubDate", "published", "dc:date", "updated"))
	item.PublishedAt = textutil.ParseDate(item.Published)

	return item
}

// tagContent returns the unwrapped content of the first tag element in
// block.
func tagContent(block, tag string) string {
	m := tagPatterns[tag].FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return unwrapCDATA(m[1])
}

func firstTag(block string, tags ...string) string {
	for _, tag := range tags {
		if v := tagContent(block, tag); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func unwrapCDATA(s string) string {
	return strings.TrimSpace(cdataPattern.ReplaceAllString(s, "$1"))
}

// atomLink picks the alternate link of an Atom entry, falling back to the
// first link with an href.
func atomLink(block string) string {
	first := ""
	for _, m := range linkTag.FindAllStringSubmatch(block, -1) {
		href := hrefAttr.FindStringSubmatch(m[1])
		if href == nil {
			continue
		}
		rel := relAttr.FindStringSubmatch(m[1])
		if rel == nil || strings.EqualFold(rel[1], "alternate") {
			return href[1]
		}
		if first == "" {
			first = href[1]
		}
	}
	if first == "" {
		// RSS-style text link inside an entry
		first = tagContent(block, "link")
	}
	return first
}
