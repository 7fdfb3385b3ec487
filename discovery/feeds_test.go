package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDiscoverFeedLinks verifies head links come first, then anchors
func TestDiscoverFeedLinks(t *testing.T) {
	page := `<html><head>
		<link rel="alternate" type="application/rss+xml" title="Latest" href="/feed.xml">
		<link rel="alternate" type="application/atom+xml" href="https://feeds.example.net/atom">
		<link rel="stylesheet" href="/style.css">
	</head><body>
		<a href="/news/rss">RSS</a>
		<a href="/feed.xml">Feed again</a>
		<a href="/feedback">Send feedback</a>
		<a href="https://other.com/rss">Other RSS</a>
		<a href="/subscribe">Get our atom feed</a>
		<a href="/news/council-approves-seafront-plan">Story</a>
	</body></html>`

	feeds := DiscoverFeedLinks(page, "https://www.example.com/", 0)

	assert.Equal(t, []string{
		"https://www.example.com/feed.xml",
		"https://feeds.example.net/atom",
		"https://www.example.com/news/rss",
		"https://www.example.com/subscribe",
	}, feeds)
}

// TestDiscoverFeedLinks_Limit verifies the cap
func TestDiscoverFeedLinks_Limit(t *testing.T) {
	page := `<html><head>
		<link type="application/rss+xml" href="/one.xml">
		<link type="application/rss+xml" href="/two.xml">
	</head><body><a href="/rss">RSS</a></body></html>`

	feeds := DiscoverFeedLinks(page, "https://example.com/", 1)

	assert.Equal(t, []string{"https://example.com/one.xml"}, feeds)
}

// TestDiscoverFeedLinks_None verifies pages without feeds
func TestDiscoverFeedLinks_None(t *testing.T) {
	feeds := DiscoverFeedLinks(`<html><body><a href="/about">About</a></body></html>`, "https://example.com/", 0)

	assert.NotNil(t, feeds)
	assert.Empty(t, feeds)
}
