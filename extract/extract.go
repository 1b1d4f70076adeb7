// Package extract finds magnet links in HTML pages.
package extract

import (
	"magnetrss/magnet"
	"magnetrss/models"
	"strings"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

// DefaultTitle is used when neither the anchor nor the page has any text
const DefaultTitle = "magnet resource"

// Page is a parsed source document
type Page struct {
	doc *goquery.Document
}

// Parse parses html best effort. It never fails, a document that can not be
// parsed at all behaves like an empty page.
func Parse(html string) *Page {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Warn("Could not parse page, treating it as empty")
		return &Page{}
	}
	return &Page{doc: doc}
}

// Title returns the trimmed text of the first <title> element, or an empty string
func (p *Page) Title() string {
	if p.doc == nil {
		return ""
	}
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

// Links returns every BitTorrent magnet anchor in document order. Anchors
// without text get the page title, then fallbackTitle, then DefaultTitle.
func (p *Page) Links(fallbackTitle string) []models.Link {
	links := []models.Link{}
	if p.doc == nil {
		return links
	}

	title := p.Title()
	if title == "" {
		title = strings.TrimSpace(fallbackTitle)
	}
	if title == "" {
		title = DefaultTitle
	}

	p.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !magnet.IsBTIH(href) {
			return
		}

		text := strings.TrimSpace(s.Text())
		if text == "" {
			text = title
		}
		links = append(links, models.Link{Text: text, Href: href})
	})

	return links
}

// Extract parses html and returns its magnet links
func Extract(html string, fallbackTitle string) []models.Link {
	return Parse(html).Links(fallbackTitle)
}
