package models

import "time"

// Link is a magnet anchor found on a source page
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// FeedItem is a single entry of the published feed.
// Title is already escaped for XML, GUID always equals Link.
type FeedItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	GUID        string `json:"guid"`
	PublishedAt string `json:"pubDate"`
}

// Snapshot holds the output of one completed refresh cycle
type Snapshot struct {
	Version   uint64     `json:"version"`
	StartedAt time.Time  `json:"startedAt"`
	Items     []FeedItem `json:"items"`
}

// Len returns the number of items, safe on a nil snapshot
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Items)
}
