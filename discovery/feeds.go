package discovery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultFeedLimit caps feed links when the caller passes no limit.
const DefaultFeedLimit = 5

// feedLinkSelector matches feed autodiscovery links.
const feedLinkSelector = "link[type='application/rss+xml'], link[type='application/atom+xml'], " +
	"link[type='application/feed+json'], link[type='application/rdf+xml']"

var feedWords = []string{"rss", "feed", "atom"}

// anchors mentioning these are not feeds
var feedFalsePositives = []string{"feedback", "facebook", "feedly.com"}

// DiscoverFeedLinks returns feed URLs declared in the page head, then
// same-site anchors whose href or text mentions rss, feed or atom.
func DiscoverFeedLinks(rawHTML, baseURL string, limit int) []string {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return []string{}
	}
	base := documentBase(doc, baseURL)

	seen := map[string]bool{}
	feeds := []string{}
	add := func(href string) bool {
		link := resolve(base, href)
		if !isHTTP(link) || seen[link] {
			return true
		}
		seen[link] = true
		feeds = append(feeds, link)
		return len(feeds) < limit
	}

	doc.Find(feedLinkSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return true
		}
		return add(href)
	})
	if len(feeds) >= limit {
		return feeds
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if skipHref(href) || !mentionsFeed(href+" "+a.Text()) {
			return true
		}
		if link := resolve(base, href); !SameSite(link, baseURL) {
			return true
		}
		return add(href)
	})

	return feeds
}

func mentionsFeed(s string) bool {
	lower := strings.ToLower(s)
	for _, fp := range feedFalsePositives {
		if strings.Contains(lower, fp) {
			return false
		}
	}
	for _, w := range feedWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
