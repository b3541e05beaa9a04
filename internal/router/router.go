// Package router maps navigation keys to view descriptors.
package router

import "strings"

// Key identifies a navigation view.
type Key string

const (
	All       Key = "all"
	Faces     Key = "faces"
	Favorites Key = "favorites"
	Timeline  Key = "timeline"
	Memories  Key = "memories"

	// Default is used for unknown keys.
	Default = All
)

// View describes how the shell renders a navigation key.
type View struct {
	Key       Key
	Title     string
	Subtitle  string
	ShowGrid  bool
	ShowFaces bool
}

var order = []Key{All, Faces, Favorites, Timeline, Memories}

var views = map[Key]View{
	All: {
		Key:      All,
		Title:    "All Photos",
		Subtitle: "Everything in your library",
		ShowGrid: true,
	},
	Faces: {
		Key:       Faces,
		Title:     "People",
		Subtitle:  "Faces grouped by person",
		ShowFaces: true,
	},
	Favorites: {
		Key:      Favorites,
		Title:    "Favorites",
		Subtitle: "Photos you starred",
		ShowGrid: true,
	},
	Timeline: {
		Key:      Timeline,
		Title:    "Timeline",
		Subtitle: "Your library by day",
		ShowGrid: true,
	},
	Memories: {
		Key:      Memories,
		Title:    "Memories",
		Subtitle: "Moments from years past",
	},
}

// Resolve returns the view for key. Unknown keys get the default view's
// title and subtitle; it never fails.
func Resolve(key string) View {
	if v, ok := views[Key(normalize(key))]; ok {
		return v
	}
	return views[Default]
}

// Known reports whether key names a view.
func Known(key string) bool {
	_, ok := views[Key(normalize(key))]
	return ok
}

// Keys returns the views in navigation order.
func Keys() []Key {
	return append([]Key(nil), order...)
}

// Next returns the key after current in navigation order, wrapping around.
func Next(current Key) Key {
	return step(current, 1)
}

// Prev returns the key before current in navigation order, wrapping around.
func Prev(current Key) Key {
	return step(current, -1)
}

// At returns the key at 1-based position n, or false.
func At(n int) (Key, bool) {
	if n < 1 || n > len(order) {
		return "", false
	}
	return order[n-1], true
}

func step(current Key, delta int) Key {
	idx := 0
	for i, k := range order {
		if k == current {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(order)) % len(order)
	return order[idx]
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
