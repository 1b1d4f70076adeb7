package feeds

import (
	"encoding/xml"
	"magnetrss/extract"
	"magnetrss/magnet"
	"magnetrss/models"
	"strings"
	"time"
)

// PubDateLayout is the RFC 1123 layout with a numeric zone, always written in UTC
const PubDateLayout = "Mon, 02 Jan 2006 15:04:05 +0000"

// ItemBuilder turns extracted links into feed items for one refresh cycle.
// Every item built gets the batch start time plus one second per item built
// before it, so publish dates are distinct and follow extraction order.
type ItemBuilder struct {
	batchStart time.Time
	next       int
}

func NewItemBuilder(batchStart time.Time) *ItemBuilder {
	return &ItemBuilder{batchStart: batchStart.UTC()}
}

// Build converts links into feed items, continuing the cycle's timestamp sequence
func (b *ItemBuilder) Build(links []models.Link) []models.FeedItem {
	items := make([]models.FeedItem, 0, len(links))
	for _, link := range links {
		items = append(items, b.item(link))
	}
	return items
}

// Count returns the number of items built so far
func (b *ItemBuilder) Count() int {
	return b.next
}

func (b *ItemBuilder) item(link models.Link) models.FeedItem {
	title := link.Text
	if title == "" {
		title = extract.DefaultTitle
	}
	href := magnet.Normalize(link.Href)
	published := b.batchStart.Add(time.Duration(b.next) * time.Second)
	b.next++

	return models.FeedItem{
		Title:       escapeTitle(title),
		Link:        href,
		GUID:        href,
		PublishedAt: FormatPubDate(published),
	}
}

// escapeTitle escapes s for use as XML character data. Runes that XML 1.0
// does not allow, such as control characters, become U+FFFD.
func escapeTitle(s string) string {
	var b strings.Builder
	// Writes to a strings.Builder never fail
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// FormatPubDate formats t the way RSS pubDate fields are written
func FormatPubDate(t time.Time) string {
	return t.UTC().Format(PubDateLayout)
}
