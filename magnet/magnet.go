// Package magnet canonicalizes magnet URIs before they are published.
package magnet

import (
	"net/url"
	"strings"
)

const (
	// Scheme is the prefix every magnet URI starts with
	Scheme = "magnet:?"

	// BTIHPrefix is the only magnet form picked up from source pages
	BTIHPrefix = "magnet:?xt=urn:btih:"
)

const upperhex = "0123456789ABCDEF"

// IsBTIH reports whether href is a BitTorrent info-hash magnet link.
// The match is case sensitive.
func IsBTIH(href string) bool {
	return strings.HasPrefix(href, BTIHPrefix)
}

// Normalize rewrites every dn parameter of a magnet URI into a single,
// strictly percent-encoded form. Anything that is not a magnet URI is
// returned untouched, as is a dn value with a malformed escape sequence.
func Normalize(uri string) string {
	if !strings.HasPrefix(uri, Scheme) {
		return uri
	}

	query := uri[len(Scheme):]
	segments := strings.Split(query, "&")
	changed := false
	for i, segment := range segments {
		value, ok := strings.CutPrefix(segment, "dn=")
		if !ok {
			continue
		}
		if normalized, ok := NormalizeValue(value); ok {
			segments[i] = "dn=" + normalized
			changed = true
		}
	}

	if !changed {
		return uri
	}
	return Scheme + strings.Join(segments, "&")
}

// NormalizeValue decodes a percent-encoded display name and encodes it again.
// ok is false when value can not be decoded.
func NormalizeValue(value string) (string, bool) {
	// PathUnescape keeps '+' as is, a display name is not form encoded
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return value, false
	}
	return Escape(decoded), true
}

// Escape percent-encodes every byte outside the RFC 3986 unreserved set
func Escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}
