package feeds_test

import (
	"magnetrss/extract"
	"magnetrss/feeds"
	"magnetrss/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemBuilderExampleEntry(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	items := feeds.NewItemBuilder(start).Build([]models.Link{
		{Text: "Sample.Movie.2024", Href: "magnet:?xt=urn:btih:ABC123&dn=Sample.Movie.2024"},
	})

	require.Len(t, items, 1)
	assert.Equal(t, models.FeedItem{
		Title:       "Sample.Movie.2024",
		Link:        "magnet:?xt=urn:btih:ABC123&dn=Sample.Movie.2024",
		GUID:        "magnet:?xt=urn:btih:ABC123&dn=Sample.Movie.2024",
		PublishedAt: "Mon, 01 Jan 2024 00:00:00 +0000",
	}, items[0])
}

func TestItemBuilderTimestampsIncreaseBySecond(t *testing.T) {
	start := time.Date(2024, 12, 31, 23, 59, 58, 0, time.UTC)
	builder := feeds.NewItemBuilder(start)

	links := make([]models.Link, 5)
	for i := range links {
		links[i] = models.Link{Text: "x", Href: "magnet:?xt=urn:btih:X"}
	}

	// Two sources in the same cycle continue one sequence
	items := append(builder.Build(links[:2]), builder.Build(links[2:])...)
	require.Len(t, items, 5)
	assert.Equal(t, 5, builder.Count())

	for i, item := range items {
		published, err := time.Parse(feeds.PubDateLayout, item.PublishedAt)
		require.NoError(t, err)
		assert.Equal(t, start.Add(time.Duration(i)*time.Second), published.UTC())
	}
	assert.Equal(t, "Wed, 01 Jan 2025 00:00:00 +0000", items[2].PublishedAt)
}

func TestItemBuilderUsesUTC(t *testing.T) {
	oslo := time.FixedZone("CET", 3600)
	start := time.Date(2024, 1, 1, 1, 0, 0, 0, oslo)
	items := feeds.NewItemBuilder(start).Build([]models.Link{{Text: "x", Href: "magnet:?xt=urn:btih:X"}})
	assert.Equal(t, "Mon, 01 Jan 2024 00:00:00 +0000", items[0].PublishedAt)
}

func TestItemBuilderEscapesTitle(t *testing.T) {
	items := feeds.NewItemBuilder(time.Now()).Build([]models.Link{
		{Text: `Tom & Jerry <1080p> "remux" it's`, Href: "magnet:?xt=urn:btih:X"},
	})
	assert.Equal(t, "Tom &amp; Jerry &lt;1080p&gt; &#34;remux&#34; it&#39;s", items[0].Title)
}

func TestItemBuilderReplacesCharactersInvalidInXML(t *testing.T) {
	items := feeds.NewItemBuilder(time.Now()).Build([]models.Link{
		{Text: "A\x0cB\x00C\x1fD\uFFFEE", Href: "magnet:?xt=urn:btih:X"},
	})
	assert.Equal(t, "A\uFFFDB\uFFFDC\uFFFDD\uFFFDE", items[0].Title)
}

func TestItemBuilderNormalizesLink(t *testing.T) {
	items := feeds.NewItemBuilder(time.Now()).Build([]models.Link{
		{Text: "x", Href: "magnet:?xt=urn:btih:X&dn=a b&tr=t"},
	})
	assert.Equal(t, "magnet:?xt=urn:btih:X&dn=a%20b&tr=t", items[0].Link)
	assert.Equal(t, items[0].Link, items[0].GUID)
}

func TestItemBuilderNeverEmitsEmptyTitle(t *testing.T) {
	items := feeds.NewItemBuilder(time.Now()).Build([]models.Link{{Href: "magnet:?xt=urn:btih:X"}})
	assert.Equal(t, extract.DefaultTitle, items[0].Title)
}
