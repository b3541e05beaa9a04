// Package media builds absolute URLs for library files and thumbnails.
package media

import (
	"net/url"
	"strings"
)

// Size is a thumbnail size hint understood by the backend.
type Size string

const (
	Small  Size = "small"
	Medium Size = "medium"
	Large  Size = "large"
)

// Sizes lists the hints from smallest to largest.
var Sizes = []Size{Small, Medium, Large}

// Pixels returns the bounding-box edge the backend renders for s.
func (s Size) Pixels() int {
	switch s {
	case Small:
		return 300
	case Large:
		return 1600
	default:
		return 800
	}
}

// ParseSize maps a hint to a Size; unknown hints fall back to Medium.
func ParseSize(hint string) Size {
	switch Size(strings.ToLower(strings.TrimSpace(hint))) {
	case Small:
		return Small
	case Large:
		return Large
	default:
		return Medium
	}
}

// SizeFor picks the smallest size whose edge covers pixels.
func SizeFor(pixels int) Size {
	for _, s := range Sizes {
		if pixels <= s.Pixels() {
			return s
		}
	}
	return Large
}

// Resolver maps relative media paths to absolute URLs.
type Resolver struct {
	// Base is the backend origin, e.g. http://localhost:8000.
	Base string
}

// NewResolver returns a resolver for base, without a trailing slash.
func NewResolver(base string) Resolver {
	return Resolver{Base: strings.TrimRight(strings.TrimSpace(base), "/")}
}

// Media returns the full-resolution URL for relativePath.
func (r Resolver) Media(relativePath string) string {
	if isAbsolute(relativePath) {
		return relativePath
	}
	return r.join("media", EncodePath(relativePath))
}

// Thumbnail returns the thumbnail URL for relativePath at size.
func (r Resolver) Thumbnail(relativePath string, size Size) string {
	if isAbsolute(relativePath) {
		return relativePath
	}
	return r.join("thumbnails", string(ParseSize(string(size))), EncodePath(relativePath))
}

// Absolute turns a backend-relative URL (such as Image.URL, "/media/a.jpg")
// into an absolute one. Already absolute URLs are returned unchanged.
func (r Resolver) Absolute(ref string) string {
	if ref == "" || isAbsolute(ref) {
		return ref
	}
	return strings.TrimRight(r.Base, "/") + "/" + strings.TrimLeft(ref, "/")
}

func (r Resolver) join(parts ...string) string {
	return strings.TrimRight(r.Base, "/") + "/" + strings.Join(parts, "/")
}

// EncodePath percent-encodes each "/"-separated segment of p on its own.
// Empty segments are dropped.
func EncodePath(p string) string {
	segments := strings.Split(p, "/")
	out := segments[:0]
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		out = append(out, url.PathEscape(seg))
	}
	return strings.Join(out, "/")
}

func isAbsolute(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
