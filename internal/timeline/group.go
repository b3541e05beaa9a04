// Package timeline buckets images into day and month groups for
// chronological browsing.
package timeline

import (
	"sort"
	"strings"
	"time"

	"github.com/tOgg1/galleria/internal/api"
)

// Group is one calendar day of images.
type Group struct {
	// Key is the day in YYYY-MM-DD form.
	Key        string
	Date       time.Time
	Label      string
	Images     []api.Image
	IsNewYear  bool
	IsNewMonth bool
}

// MonthKey returns the YYYY-MM bucket this group belongs to.
func (g Group) MonthKey() string {
	return g.Date.Format("2006-01")
}

// MonthBucket aggregates day groups for the month navigator.
type MonthBucket struct {
	Key   string
	Label string
	Count int
}

// GroupImages buckets images by calendar day of ModifiedAt in loc and returns the
// groups newest first. Images inside a group keep their input order.
//
// The first group (newest) is always a new year and new month; each later
// group is compared with the group immediately before it.
func GroupImages(images []api.Image, now time.Time, loc *time.Location) []Group {
	if loc == nil {
		loc = time.Local
	}
	byDay := make(map[string]*Group)
	var order []*Group
	for _, img := range images {
		local := img.ModifiedAt.In(loc)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		key := day.Format("2006-01-02")
		g, ok := byDay[key]
		if !ok {
			g = &Group{Key: key, Date: day}
			byDay[key] = g
			order = append(order, g)
		}
		g.Images = append(g.Images, img)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Date.After(order[j].Date)
	})

	today := now.In(loc)
	groups := make([]Group, len(order))
	for i, g := range order {
		g.Label = dayLabel(g.Date, today)
		if i == 0 {
			g.IsNewYear = true
			g.IsNewMonth = true
		} else {
			prev := order[i-1].Date
			g.IsNewYear = g.Date.Year() != prev.Year()
			g.IsNewMonth = g.IsNewYear || g.Date.Month() != prev.Month()
		}
		groups[i] = *g
	}
	return groups
}

func dayLabel(day, now time.Time) string {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	case day.Year() != y:
		return day.Format("Monday, January 2, 2006")
	default:
		return day.Format("Monday, January 2")
	}
}

// Months rolls day groups into month buckets sorted newest first.
func Months(groups []Group) []MonthBucket {
	byKey := make(map[string]*MonthBucket)
	var buckets []*MonthBucket
	for _, g := range groups {
		key := g.MonthKey()
		b, ok := byKey[key]
		if !ok {
			b = &MonthBucket{Key: key, Label: g.Date.Format("January 2006")}
			byKey[key] = b
			buckets = append(buckets, b)
		}
		b.Count += len(g.Images)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Key > buckets[j].Key
	})
	out := make([]MonthBucket, len(buckets))
	for i, b := range buckets {
		out[i] = *b
	}
	return out
}

// IndexOfMonth returns the index of the first group in month key, or -1.
func IndexOfMonth(groups []Group, key string) int {
	for i, g := range groups {
		if g.MonthKey() == key {
			return i
		}
	}
	return -1
}

// Filter narrows the image list before grouping. Zero values disable a
// criterion.
type Filter struct {
	FavoritesOnly bool
	Since         time.Time
	Until         time.Time
	NameContains  string
}

// IsZero reports whether the filter passes everything.
func (f Filter) IsZero() bool {
	return !f.FavoritesOnly && f.Since.IsZero() && f.Until.IsZero() && strings.TrimSpace(f.NameContains) == ""
}

// Apply returns the images passing f. isFavorite may be nil when
// FavoritesOnly is false.
func (f Filter) Apply(images []api.Image, isFavorite func(id string) bool) []api.Image {
	if f.IsZero() {
		return images
	}
	needle := strings.ToLower(strings.TrimSpace(f.NameContains))
	out := make([]api.Image, 0, len(images))
	for _, img := range images {
		if f.FavoritesOnly && (isFavorite == nil || !isFavorite(img.ID)) {
			continue
		}
		if !f.Since.IsZero() && img.ModifiedAt.Before(f.Since) {
			continue
		}
		if !f.Until.IsZero() && !img.ModifiedAt.Before(f.Until) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(img.Name), needle) {
			continue
		}
		out = append(out, img)
	}
	return out
}
