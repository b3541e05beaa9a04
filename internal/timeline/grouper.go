package timeline

import (
	"sync"
	"time"

	"github.com/tOgg1/galleria/internal/api"
)

type memoKey struct {
	data   *api.Image
	length int
	day    string
	loc    *time.Location
	filter Filter
	favs   uint64
}

// Grouper memoizes GroupImages by input identity: the same backing slice,
// length, calendar day, location and filter return the cached groups.
type Grouper struct {
	Location *time.Location

	mu     sync.Mutex
	key    memoKey
	valid  bool
	groups []Group
	months []MonthBucket
}

// NewGrouper returns a grouper for loc (time.Local when nil).
func NewGrouper(loc *time.Location) *Grouper {
	if loc == nil {
		loc = time.Local
	}
	return &Grouper{Location: loc}
}

// Groups returns the day groups for images as of now.
func (g *Grouper) Groups(images []api.Image, now time.Time) []Group {
	groups, _ := g.Project(images, now, Filter{}, nil, 0)
	return groups
}

// Project filters and groups images. favVersion identifies the favorites
// snapshot so a toggle invalidates the cache when FavoritesOnly is set.
func (g *Grouper) Project(images []api.Image, now time.Time, f Filter, isFavorite func(string) bool, favVersion uint64) ([]Group, []MonthBucket) {
	key := memoKey{
		length: len(images),
		day:    now.In(g.Location).Format("2006-01-02"),
		loc:    g.Location,
		filter: f,
	}
	if len(images) > 0 {
		key.data = &images[0]
	}
	if f.FavoritesOnly {
		key.favs = favVersion
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.valid && g.key == key {
		return g.groups, g.months
	}
	g.groups = GroupImages(f.Apply(images, isFavorite), now, g.Location)
	g.months = Months(g.groups)
	g.key = key
	g.valid = true
	return g.groups, g.months
}

// Invalidate drops the cached projection.
func (g *Grouper) Invalidate() {
	g.mu.Lock()
	g.valid = false
	g.groups = nil
	g.months = nil
	g.mu.Unlock()
}
