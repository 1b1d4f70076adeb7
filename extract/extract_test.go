package extract_test

import (
	"magnetrss/extract"
	"magnetrss/models"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		fallback string
		expected []models.Link
	}{
		{
			name: "single anchor",
			html: `<html><body><a href="magnet:?xt=urn:btih:HASH1&dn=My%20File">Click</a></body></html>`,
			expected: []models.Link{
				{Text: "Click", Href: "magnet:?xt=urn:btih:HASH1&dn=My%20File"},
			},
		},
		{
			name: "other hrefs are ignored",
			html: `<a href="https://example.test">web</a>
				<a href="magnet:?xt=urn:sha1:ABC">sha1</a>
				<a href="MAGNET:?xt=urn:btih:ABC">upper</a>
				<a href="magnet:?dn=x&xt=urn:btih:ABC">reordered</a>
				<a>no href</a>
				<a href="magnet:?xt=urn:btih:KEEP">keep</a>`,
			expected: []models.Link{
				{Text: "keep", Href: "magnet:?xt=urn:btih:KEEP"},
			},
		},
		{
			name: "document order and trimmed text",
			html: `<a href="magnet:?xt=urn:btih:1">
					first
				</a><p><a href="magnet:?xt=urn:btih:2"><b>second</b> part</a></p>`,
			expected: []models.Link{
				{Text: "first", Href: "magnet:?xt=urn:btih:1"},
				{Text: "second part", Href: "magnet:?xt=urn:btih:2"},
			},
		},
		{
			name: "empty text falls back to page title",
			html: `<html><head><title>  Page Title </title></head><body><a href="magnet:?xt=urn:btih:1">   </a></body></html>`,
			expected: []models.Link{
				{Text: "Page Title", Href: "magnet:?xt=urn:btih:1"},
			},
		},
		{
			name:     "empty text and no title uses the fallback",
			html:     `<a href="magnet:?xt=urn:btih:1"></a>`,
			fallback: "Source",
			expected: []models.Link{
				{Text: "Source", Href: "magnet:?xt=urn:btih:1"},
			},
		},
		{
			name: "empty text and no title uses the default",
			html: `<body><a href="magnet:?xt=urn:btih:1"><img src="x.png"></a></body>`,
			expected: []models.Link{
				{Text: extract.DefaultTitle, Href: "magnet:?xt=urn:btih:1"},
			},
		},
		{
			name: "malformed html",
			html: `<html><body><p>broken <a href="magnet:?xt=urn:btih:1">one</a></span></div><a href="magnet:?xt=urn:btih:2">two`,
			expected: []models.Link{
				{Text: "one", Href: "magnet:?xt=urn:btih:1"},
				{Text: "two", Href: "magnet:?xt=urn:btih:2"},
			},
		},
		{
			name:     "no anchors",
			html:     `<html><title>x</title></html>`,
			expected: []models.Link{},
		},
		{
			name:     "empty document",
			html:     ``,
			expected: []models.Link{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extract.Extract(tt.html, tt.fallback))
		})
	}
}

func TestPageTitle(t *testing.T) {
	assert.Equal(t, "Hello", extract.Parse(`<title> Hello </title>`).Title())
	assert.Equal(t, "", extract.Parse(`<p>no title</p>`).Title())
}

func TestExtractOnlyReturnsBTIHLinks(t *testing.T) {
	html := `<a href="magnet:?xt=urn:btih:A">a</a>
		<a href="magnet:?xt=urn:sha1:B">b</a>
		<a href="magnet:?xt=urn:ed2k:C">c</a>
		<a href="magnet:?xt=urn:btih:D">d</a>
		<a href="/magnet:?xt=urn:btih:E">e</a>`

	for _, link := range extract.Extract(html, "") {
		assert.Regexp(t, `^magnet:\?xt=urn:btih:`, link.Href)
	}
	assert.Len(t, extract.Extract(html, ""), 2)
}
