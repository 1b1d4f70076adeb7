// Package feeds builds feed items and renders them as an RSS 2.0 document
package feeds

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"magnetrss/models"
)

const ContentType = "application/rss+xml; charset=utf-8"

// Channel holds the fixed channel level metadata of the feed
type Channel struct {
	Title       string
	Link        string
	Description string
	Language    string
}

// DefaultChannel returns the channel metadata used when nothing else is configured
func DefaultChannel() Channel {
	return Channel{
		Title:       "磁力链接RSS订阅",
		Link:        "http://localhost:5000/rss",
		Description: "自动抓取磁力链接",
		Language:    "zh-cn",
	}
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	// Titles are escaped when the item is built
	Title   rawXML  `xml:"title"`
	Link    string  `xml:"link"`
	GUID    rssGUID `xml:"guid"`
	PubDate string  `xml:"pubDate"`
}

type rawXML struct {
	Inner string `xml:",innerxml"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// Render serializes a snapshot into an RSS 2.0 document. Items keep the
// snapshot order. Link and guid values are escaped here, titles are not.
func Render(snapshot *models.Snapshot, channel Channel) ([]byte, error) {
	doc := rssDocument{
		Version: "2.0",
		Channel: rssChannel{
			Title:       channel.Title,
			Link:        channel.Link,
			Description: channel.Description,
			Language:    channel.Language,
			Items:       []rssItem{},
		},
	}

	if snapshot != nil {
		if !snapshot.StartedAt.IsZero() {
			doc.Channel.LastBuildDate = FormatPubDate(snapshot.StartedAt)
		}
		for _, item := range snapshot.Items {
			doc.Channel.Items = append(doc.Channel.Items, rssItem{
				Title:   rawXML{Inner: item.Title},
				Link:    item.Link,
				GUID:    rssGUID{IsPermaLink: "false", Value: item.GUID},
				PubDate: item.PublishedAt,
			})
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	encoder := xml.NewEncoder(&buf)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("error encoding feed: %w", err)
	}
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}
