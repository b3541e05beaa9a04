package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/galleria/internal/api"
)

func TestGrouperMemoizesByInputIdentity(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, loc)
	images := []api.Image{
		img("a", time.Date(2025, 2, 10, 9, 0, 0, 0, loc)),
		img("b", time.Date(2025, 1, 5, 9, 0, 0, 0, loc)),
	}
	g := NewGrouper(loc)

	first := g.Groups(images, now)
	second := g.Groups(images, now.Add(time.Hour))
	require.Len(t, first, 2)
	require.Same(t, &first[0], &second[0])

	// A different backing slice with equal content is recomputed.
	copied := append([]api.Image(nil), images...)
	third := g.Groups(copied, now)
	require.NotSame(t, &first[0], &third[0])
	require.Equal(t, first, third)
}

func TestGrouperRecomputesOnNewDayAndAppend(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 2, 10, 23, 0, 0, 0, loc)
	images := make([]api.Image, 1, 4)
	images[0] = img("a", time.Date(2025, 2, 10, 9, 0, 0, 0, loc))
	g := NewGrouper(loc)

	require.Equal(t, "Today", g.Groups(images, now)[0].Label)
	require.Equal(t, "Yesterday", g.Groups(images, now.Add(2*time.Hour))[0].Label)

	images = append(images, img("b", time.Date(2025, 2, 9, 9, 0, 0, 0, loc)))
	require.Len(t, g.Groups(images, now), 2)
}

func TestGrouperProjectTracksFavoritesVersion(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, loc)
	images := []api.Image{
		img("a", time.Date(2025, 2, 10, 9, 0, 0, 0, loc)),
		img("b", time.Date(2025, 1, 5, 9, 0, 0, 0, loc)),
	}
	favs := map[string]bool{"a": true}
	isFav := func(id string) bool { return favs[id] }
	g := NewGrouper(loc)
	only := Filter{FavoritesOnly: true}

	groups, months := g.Project(images, now, only, isFav, 1)
	require.Len(t, groups, 1)
	require.Equal(t, []MonthBucket{{Key: "2025-02", Label: "February 2025", Count: 1}}, months)

	favs["b"] = true
	groups, _ = g.Project(images, now, only, isFav, 1)
	require.Len(t, groups, 1, "same version is served from cache")

	groups, months = g.Project(images, now, only, isFav, 2)
	require.Len(t, groups, 2)
	require.Len(t, months, 2)

	g.Invalidate()
	groups, _ = g.Project(images, now, Filter{}, nil, 0)
	require.Len(t, groups, 2)
}
