// Package feedparser turns RSS and Atom documents into raw items. It tries
// gofeed first and falls back to a lenient block matcher for feeds gofeed
// rejects.
package feedparser

import (
	"errors"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/pevans/newsgather/textutil"
)

// DefaultMaxItems caps the items taken from a single feed.
const DefaultMaxItems = 15

// ErrNotAFeed is returned when the document has no recognisable feed
// structure.
var ErrNotAFeed = errors.New("document is not an RSS or Atom feed")

// RawItem is one feed entry before any page extraction.
type RawItem struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Description string     `json:"description"`
	Author      string     `json:"author"`
	Published   string     `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// Valid reports whether the item has the title and link every downstream
// step requires.
func (r RawItem) Valid() bool {
	return r.Title != "" && r.Link != ""
}

// Parse parses a feed document, keeping at most DefaultMaxItems items.
func Parse(raw string) ([]RawItem, error) {
	return ParseN(raw, DefaultMaxItems)
}

// ParseN parses a feed document, considering only the first maxItems entries.
// Entries without a title or link are dropped.
func ParseN(raw string, maxItems int) ([]RawItem, error) {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	feed, err := gofeed.NewParser().ParseString(raw)
	if err == nil {
		return fromGofeed(feed, maxItems), nil
	}

	items, ok := parseLenient(raw, maxItems)
	if !ok {
		return nil, ErrNotAFeed
	}
	return items, nil
}

func fromGofeed(feed *gofeed.Feed, maxItems int) []RawItem {
	items := make([]RawItem, 0, min(len(feed.Items), maxItems))
	for i, item := range feed.Items {
		if i >= maxItems {
			break
		}
		if raw, ok := ItemToRawItem(item); ok {
			items = append(items, raw)
		}
	}
	return items
}

// ItemToRawItem converts a gofeed item. The bool is false when the item
// lacks a title or a link.
func ItemToRawItem(item *gofeed.Item) (RawItem, bool) {
	raw := RawItem{
		Title: textutil.NormalizeSpace(textutil.StripTags(item.Title)),
		Link:  itemLink(item),
	}

	// gofeed maps description and summary to Description; content:encoded
	// and atom content land in Content.
	desc := item.Description
	if strings.TrimSpace(desc) == "" {
		desc = item.Content
	}
	raw.Description = textutil.StripTags(desc)

	var authors []string
	if item.Author != nil && item.Author.Name != "" {
		authors = append(authors, item.Author.Name)
	}
	for _, author := range item.Authors {
		if author != nil && author.Name != "" && !contains(authors, author.Name) {
			authors = append(authors, author.Name)
		}
	}
	if item.DublinCoreExt != nil {
		for _, creator := range item.DublinCoreExt.Creator {
			if creator != "" && !contains(authors, creator) {
				authors = append(authors, creator)
			}
		}
	}
	raw.Author = strings.Join(authors, ", ")

	raw.Published = item.Published
	switch {
	case item.PublishedParsed != nil:
		t := item.PublishedParsed.UTC()
		raw.PublishedAt = &t
	case item.UpdatedParsed != nil:
		t := item.UpdatedParsed.UTC()
		raw.PublishedAt = &t
		if raw.Published == "" {
			raw.Published = item.Updated
		}
	default:
		raw.PublishedAt = textutil.ParseDate(item.Published)
	}

	return raw, raw.Valid()
}

// itemLink prefers the item link and falls back to a GUID that is itself a
// URL.
func itemLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	for _, l := range item.Links {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	guid := strings.TrimSpace(item.GUID)
	if strings.HasPrefix(guid, "http://") || strings.HasPrefix(guid, "https://") {
		return guid
	}
	return ""
}

// LooksLikeFeed reports whether body carries an RSS, RDF or Atom root
// marker near its start.
func LooksLikeFeed(body string) bool {
	head := strings.ToLower(body[:min(len(body), 4096)])
	for _, marker := range []string{"<rss", "<feed", "<rdf:rdf", "<channel"} {
		if strings.Contains(head, marker) {
			return true
		}
	}
	return false
}

func contains(slice []string, str string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, str) {
			return true
		}
	}
	return false
}
