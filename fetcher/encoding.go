package fetcher

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/net/html/charset"
)

const (
	// Same window the HTML spec uses when prescanning for <meta charset>
	prescanSize = 1024

	// Enough text for a confident guess, detection cost grows with input
	detectSize = 64 * 1024
)

// chardet names that are not encoding labels known to the WHATWG index
var detectedAliases = map[string]string{
	"GB-18030": "gb18030",
}

// decode converts a page body to UTF-8 and returns the name of the encoding
// it was read as. A byte order mark, a charset in contentType or a <meta>
// declaration wins. Undeclared bodies that are not valid UTF-8 get their
// encoding detected from the content.
func decode(body []byte, contentType string) (string, string) {
	enc, name, certain := charset.DetermineEncoding(body, contentType)

	if !certain && !declaresCharset(body) {
		if utf8.Valid(body) {
			return string(body), "utf-8"
		}
		if label, ok := detectCharset(body); ok {
			if detected, detectedName := charset.Lookup(label); detected != nil {
				enc, name = detected, detectedName
			}
		}
	}

	if name == "utf-8" {
		return string(body), name
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return string(body), "raw"
	}
	return string(decoded), name
}

func declaresCharset(body []byte) bool {
	preview := body[:min(len(body), prescanSize)]
	return bytes.Contains(bytes.ToLower(preview), []byte("charset"))
}

// detectCharset guesses the charset of body from its text and returns an
// encoding label
func detectCharset(body []byte) (string, bool) {
	result, err := chardet.NewHtmlDetector().DetectBest(body[:min(len(body), detectSize)])
	if err != nil || result == nil {
		return "", false
	}
	if alias, ok := detectedAliases[result.Charset]; ok {
		return alias, true
	}
	return strings.ToLower(result.Charset), true
}
