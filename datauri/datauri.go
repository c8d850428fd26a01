// Package datauri builds and parses RFC 2397 data URIs whose content is
// percent-encoded text.
package datauri

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// HTMLPrefix is the scheme and media type of an inline HTML document.
const HTMLPrefix = "data:text/html;charset=utf-8,"

// ErrNotDataURI is returned by Parse for strings without the data: scheme
// or without the comma separating media type and content.
var ErrNotDataURI = errors.New("not a data URI")

const upperhex = "0123456789ABCDEF"

// unreserved reports whether b is in the RFC 3986 unreserved set.
func unreserved(b byte) bool {
	switch {
	case 'A' <= b && b <= 'Z', 'a' <= b && b <= 'z', '0' <= b && b <= '9':
		return true
	case b == '-', b == '.', b == '_', b == '~':
		return true
	}
	return false
}

// Escape percent-encodes every byte of s outside the unreserved set,
// including '/', '&', ':' and spaces.
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

// Unescape reverses Escape. '+' is left as is.
func Unescape(s string) (string, error) {
	out, err := url.PathUnescape(s)
	if err != nil {
		return "", fmt.Errorf("unescape data: %w", err)
	}
	return out, nil
}

// HTML wraps an HTML document in a data:text/html URI.
func HTML(doc string) string {
	return HTMLPrefix + Escape(doc)
}

// URI is a parsed data URI.
type URI struct {
	MediaType string // e.g. "text/html;charset=utf-8"; empty means text/plain
	Data      string
}

// IsHTML reports whether the media type is text/html.
func (u URI) IsHTML() bool {
	mt, _, _ := strings.Cut(u.MediaType, ";")
	return strings.EqualFold(strings.TrimSpace(mt), "text/html")
}

// Parse splits a data URI into its media type and unescaped content.
// Base64 content is not supported.
func Parse(s string) (URI, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return URI{}, ErrNotDataURI
	}
	mediaType, data, ok := strings.Cut(rest, ",")
	if !ok {
		return URI{}, ErrNotDataURI
	}
	if strings.HasSuffix(mediaType, ";base64") {
		return URI{}, fmt.Errorf("base64 data URIs are not supported")
	}
	body, err := Unescape(data)
	if err != nil {
		return URI{}, err
	}
	return URI{MediaType: mediaType, Data: body}, nil
}
