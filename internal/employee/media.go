package employee

import (
	"net/url"
	"strings"
)

// MediaResolver turns a stored media reference into a URL clients can fetch.
type MediaResolver interface {
	Resolve(ref string) string
}

// MediaURL resolves references against a base URL such as "/media/" or
// "https://cdn.example.com/media/".
type MediaURL struct {
	BaseURL string
}

func (m MediaURL) Resolve(ref string) string {
	base := m.BaseURL
	if base == "" {
		base = "/"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	segments := strings.Split(strings.TrimPrefix(ref, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return base + strings.Join(segments, "/")
}
