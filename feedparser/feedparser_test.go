package feedparser

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: wrap item XML in an RSS 2.0 document
func rssDoc(items ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel><title>Eastbourne Herald</title><link>https://www.eastbourneherald.co.uk</link>` +
		strings.Join(items, "\n") + `</channel></rss>`
}

// TestParse_RSSItems verifies field mapping and the drop rule
func TestParse_RSSItems(t *testing.T) {
	doc := rssDoc(
		`<item>
			<title>Seafront cycle lane approved</title>
			<link>https://www.eastbourneherald.co.uk/news/cycle-lane</link>
			<description><![CDATA[<p>Councillors backed the <b>scheme</b>.</p>]]></description>
			<dc:creator>Jane Reporter</dc:creator>
			<pubDate>Tue, 05 Mar 2024 09:30:00 +0000</pubDate>
		</item>`,
		`<item><link>https://www.eastbourneherald.co.uk/news/untitled</link></item>`,
		`<item><title>Guid only</title><guid isPermaLink="true">https://www.eastbourneherald.co.uk/news/guid-only</guid></item>`,
		`<item><title>No link at all</title><guid isPermaLink="false">tag-1234</guid></item>`,
	)

	items, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "Seafront cycle lane approved", first.Title)
	assert.Equal(t, "https://www.eastbourneherald.co.uk/news/cycle-lane", first.Link)
	assert.Equal(t, "Councillors backed the scheme .", first.Description)
	assert.Equal(t, "Jane Reporter", first.Author)
	require.NotNil(t, first.PublishedAt)
	assert.True(t, time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC).Equal(*first.PublishedAt))

	assert.Equal(t, "Guid only", items[1].Title)
	assert.Equal(t, "https://www.eastbourneherald.co.uk/news/guid-only", items[1].Link)
}

// TestParse_TitleAndLinkRule verifies an item is kept exactly when both
// title and link are present
func TestParse_TitleAndLinkRule(t *testing.T) {
	tests := []struct {
		name  string
		title string
		link  string
		keep  bool
	}{
		{"both", "<title>Story</title>", "<link>https://example.com/a</link>", true},
		{"title only", "<title>Story</title>", "", false},
		{"link only", "", "<link>https://example.com/a</link>", false},
		{"neither", "", "", false},
		{"blank title", "<title>   </title>", "<link>https://example.com/a</link>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := Parse(rssDoc("<item>" + tt.title + tt.link + "</item>"))
			require.NoError(t, err)
			if tt.keep {
				require.Len(t, items, 1)
				assert.True(t, items[0].Valid())
			} else {
				assert.Empty(t, items)
			}
		})
	}
}

// TestParse_CapsItems verifies only the first items are considered
func TestParse_CapsItems(t *testing.T) {
	var items []string
	for i := range 20 {
		items = append(items, fmt.Sprintf(
			"<item><title>Story %d</title><link>https://example.com/news/%d</link></item>", i, i))
	}

	parsed, err := Parse(rssDoc(items...))
	require.NoError(t, err)
	require.Len(t, parsed, DefaultMaxItems)
	assert.Equal(t, "Story 0", parsed[0].Title)
	assert.Equal(t, "Story 14", parsed[14].Title)

	parsed, err = ParseN(rssDoc(items...), 5)
	require.NoError(t, err)
	assert.Len(t, parsed, 5)
}

// TestParse_Atom verifies Atom entries map to raw items
func TestParse_Atom(t *testing.T) {
	doc := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Council news</title>
  <entry>
    <title>Budget consultation opens</title>
    <link rel="alternate" href="https://www.lewes-eastbourne.gov.uk/news/budget"/>
    <id>urn:uuid:1225c695</id>
    <published>2024-02-01T10:00:00Z</published>
    <author><name>Press Office</name></author>
    <summary>Residents can comment until March.</summary>
  </entry>
</feed>`

	items, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Budget consultation opens", items[0].Title)
	assert.Equal(t, "https://www.lewes-eastbourne.gov.uk/news/budget", items[0].Link)
	assert.Equal(t, "Press Office", items[0].Author)
	assert.Equal(t, "Residents can comment until March.", items[0].Description)
	require.NotNil(t, items[0].PublishedAt)
}

// TestParse_NotAFeed verifies HTML documents are rejected
func TestParse_NotAFeed(t *testing.T) {
	_, err := Parse("<html><head><title>Home</title></head><body><p>Hello</p></body></html>")
	require.ErrorIs(t, err, ErrNotAFeed)
}

// TestParse_MalformedFeed verifies broken XML still yields its items
func TestParse_MalformedFeed(t *testing.T) {
	doc := `<rss version="2.0"><channel><title>Broken & unescaped</title>
<item><title><![CDATA[Pier <em>reopens</em> after storm]]></title>
<link>https://www.theargus.co.uk/news/pier-reopens</link>
<description>Crowds & families returned</description>
<pubDate>2024-06-01T08:00:00Z</pubDate>
</item>
<item><title>Second story</title><link>https://www.theargus.co.uk/news/second`

	items, err := Parse(doc)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	assert.Contains(t, items[0].Title, "Pier")
	assert.Equal(t, "https://www.theargus.co.uk/news/pier-reopens", items[0].Link)
}

// TestParseLenient_Blocks verifies the structural matcher directly
func TestParseLenient_Blocks(t *testing.T) {
	doc := `<rss><channel>
<item><title><![CDATA[Road closure & diversions]]></title>
<link>https://example.com/news/road?id=1&amp;ref=rss</link>
<description><![CDATA[<p>Works start <strong>Monday</strong></p>]]></description>
<author>desk@example.com (News Desk)</author>
<pubDate>Mon, 04 Mar 2024 07:00:00 +0000</pubDate></item>
<entry><title>Atom style</title><link rel="self" href="https://example.com/self"/><link href="https://example.com/news/atom"/>
<author><name>Atom Author</name></author><updated>2024-03-04T07:00:00Z</updated></entry>
<item><title>No link</title></item>
</channel></rss>`

	items, ok := parseLenient(doc, DefaultMaxItems)
	require.True(t, ok)
	require.Len(t, items, 2)

	assert.Equal(t, "Road closure & diversions", items[0].Title)
	assert.Equal(t, "https://example.com/news/road?id=1&ref=rss", items[0].Link)
	assert.Equal(t, "Works start Monday", items[0].Description)
	assert.Equal(t, "desk@example.com (News Desk)", items[0].Author)
	require.NotNil(t, items[0].PublishedAt)

	assert.Equal(t, "https://example.com/news/atom", items[1].Link)
	assert.Equal(t, "Atom Author", items[1].Author)
}

// TestItemToRawItem_Authors verifies author collection and deduplication
func TestItemToRawItem_Authors(t *testing.T) {
	item := &gofeed.Item{
		Title:   "Test",
		Link:    "http://example.com",
		Author:  &gofeed.Person{Name: "John Doe"},
		Authors: []*gofeed.Person{{Name: "John Doe"}, {Name: "Jane Smith"}},
		DublinCoreExt: &ext.DublinCoreExtension{
			Creator: []string{"jane smith", "DC Author"},
		},
	}

	raw, ok := ItemToRawItem(item)
	require.True(t, ok)
	assert.Equal(t, "John Doe, Jane Smith, DC Author", raw.Author)
}

// TestItemToRawItem_UpdatedDateFallback verifies updated dates are used when
// published is missing
func TestItemToRawItem_UpdatedDateFallback(t *testing.T) {
	updated := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	raw, ok := ItemToRawItem(&gofeed.Item{
		Title:         "Test",
		Link:          "http://example.com",
		UpdatedParsed: &updated,
	})

	require.True(t, ok)
	require.NotNil(t, raw.PublishedAt)
	assert.Equal(t, updated, *raw.PublishedAt)
}

// TestLooksLikeFeed verifies root marker detection
func TestLooksLikeFeed(t *testing.T) {
	assert.True(t, LooksLikeFeed(`<?xml version="1.0"?><rss version="2.0">`))
	assert.True(t, LooksLikeFeed(`<feed xmlns="http://www.w3.org/2005/Atom">`))
	assert.True(t, LooksLikeFeed(`<rdf:RDF xmlns:rdf="...">`))
	assert.False(t, LooksLikeFeed(`<!doctype html><html><body>news</body></html>`))
	assert.False(t, LooksLikeFeed(""))
}
