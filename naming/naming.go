// Package naming derives filesystem-safe image names from catalog records.
package naming

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultExt is used when an image URL carries no extension of its own.
const DefaultExt = ".jpg"

// Sanitize converts s to a filesystem friendly form: spaces become hyphens,
// letters are lowercased and everything outside [a-z0-9.-] is dropped.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '.' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Base returns the base file name (no extension) for a make/model pair.
// Distinct pairs may collide; callers resolve that by skipping existing files.
func Base(make, model string) string {
	return Sanitize(make + "-" + model)
}

// ExtFromURL returns the extension of the last segment of the URL path,
// including the leading dot, or DefaultExt when there is none. Parameters
// after a ';' in the last segment are not part of the name.
func ExtFromURL(rawURL string) string {
	p := urlPath(rawURL)
	last := strings.LastIndexByte(p, '/') + 1
	if i := strings.IndexByte(p[last:], ';'); i >= 0 {
		p = p[:last+i]
	}

	p = unescape(p)
	// Leading dots mark hidden names, not extensions.
	name := strings.TrimLeft(p[strings.LastIndexByte(p, '/')+1:], ".")
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return DefaultExt
	}
	return name[i:]
}

// urlPath returns the still escaped path of rawURL. URLs that url.Parse
// rejects are split by hand.
func urlPath(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		return u.EscapedPath()
	}

	s := rawURL
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+len("://"):]
		i = strings.IndexByte(s, '/')
		if i < 0 {
			return ""
		}
		s = s[i:]
	}
	return s
}

// unescape decodes the valid %XX sequences of s and keeps the others as
// written.
func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if c, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(c))
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
