package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/galleria/internal/api"
)

func img(id string, at time.Time) api.Image {
	return api.Image{ID: id, Name: id + ".jpg", ModifiedAt: api.NewTimestamp(at)}
}

func ids(images []api.Image) []string {
	out := make([]string, 0, len(images))
	for _, im := range images {
		out = append(out, im.ID)
	}
	return out
}

func TestGroupTwoMonthsSameYear(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, loc)
	images := []api.Image{
		img("jan", time.Date(2025, 1, 5, 9, 0, 0, 0, loc)),
		img("feb", time.Date(2025, 2, 10, 18, 30, 0, 0, loc)),
	}

	groups := GroupImages(images, now, loc)
	require.Len(t, groups, 2)

	require.Equal(t, "2025-02-10", groups[0].Key)
	require.True(t, groups[0].IsNewYear)
	require.True(t, groups[0].IsNewMonth)

	require.Equal(t, "2025-01-05", groups[1].Key)
	require.False(t, groups[1].IsNewYear)
	require.True(t, groups[1].IsNewMonth)
}

func TestGroupBoundaryFlagsAcrossYears(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 1, 20, 12, 0, 0, 0, loc)
	images := []api.Image{
		img("a", time.Date(2024, 12, 30, 10, 0, 0, 0, loc)),
		img("b", time.Date(2025, 1, 2, 10, 0, 0, 0, loc)),
		img("c", time.Date(2024, 12, 1, 10, 0, 0, 0, loc)),
		img("d", time.Date(2025, 1, 1, 10, 0, 0, 0, loc)),
		img("e", time.Date(2024, 11, 30, 10, 0, 0, 0, loc)),
	}

	groups := GroupImages(images, now, loc)
	require.Len(t, groups, 5)

	type flags struct {
		key            string
		newYear, month bool
	}
	var got []flags
	for _, g := range groups {
		got = append(got, flags{g.Key, g.IsNewYear, g.IsNewMonth})
	}
	require.Equal(t, []flags{
		{"2025-01-02", true, true},
		{"2025-01-01", false, false},
		{"2024-12-30", true, true},
		{"2024-12-01", false, false},
		{"2024-11-30", false, true},
	}, got)

	// The oldest group is only new when it differs from its newer neighbour.
	last := groups[len(groups)-1]
	require.False(t, last.IsNewYear)
}

func TestGroupKeepsInputOrderWithinDay(t *testing.T) {
	loc := time.UTC
	day := time.Date(2025, 2, 10, 0, 0, 0, 0, loc)
	images := []api.Image{
		img("late", day.Add(20*time.Hour)),
		img("early", day.Add(1*time.Hour)),
		img("mid", day.Add(12*time.Hour)),
	}
	groups := GroupImages(images, day, loc)
	require.Len(t, groups, 1)
	require.Equal(t, []string{"late", "early", "mid"}, ids(groups[0].Images))
}

func TestGroupUsesLocationForCalendarDay(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 2025-02-10 20:00 UTC is 2025-02-11 05:00 in Tokyo.
	at := time.Date(2025, 2, 10, 20, 0, 0, 0, time.UTC)
	groups := GroupImages([]api.Image{img("x", at)}, at, tokyo)
	require.Equal(t, "2025-02-11", groups[0].Key)

	groups = GroupImages([]api.Image{img("x", at)}, at, time.UTC)
	require.Equal(t, "2025-02-10", groups[0].Key)
}

func TestDayLabels(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 2, 10, 8, 0, 0, 0, loc)
	images := []api.Image{
		img("today", now.Add(-time.Hour)),
		img("yesterday", now.Add(-20*time.Hour)),
		img("older", time.Date(2025, 1, 6, 12, 0, 0, 0, loc)),
		img("last-year", time.Date(2024, 7, 4, 12, 0, 0, 0, loc)),
	}
	groups := GroupImages(images, now, loc)
	var labels []string
	for _, g := range groups {
		labels = append(labels, g.Label)
	}
	require.Equal(t, []string{
		"Today",
		"Yesterday",
		"Monday, January 6",
		"Thursday, July 4, 2024",
	}, labels)
}

func TestGroupEmpty(t *testing.T) {
	require.Empty(t, GroupImages(nil, time.Now(), nil))
	require.Empty(t, Months(nil))
}

func TestMonthsSumsDayCounts(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, loc)
	images := []api.Image{
		img("a", time.Date(2025, 2, 10, 9, 0, 0, 0, loc)),
		img("b", time.Date(2025, 2, 10, 10, 0, 0, 0, loc)),
		img("c", time.Date(2025, 2, 3, 10, 0, 0, 0, loc)),
		img("d", time.Date(2025, 1, 5, 10, 0, 0, 0, loc)),
		img("e", time.Date(2024, 12, 25, 10, 0, 0, 0, loc)),
	}
	groups := GroupImages(images, now, loc)
	months := Months(groups)
	require.Equal(t, []MonthBucket{
		{Key: "2025-02", Label: "February 2025", Count: 3},
		{Key: "2025-01", Label: "January 2025", Count: 1},
		{Key: "2024-12", Label: "December 2024", Count: 1},
	}, months)

	require.Equal(t, 2, IndexOfMonth(groups, "2025-01"))
	require.Equal(t, -1, IndexOfMonth(groups, "2023-01"))
}

func TestFilterApply(t *testing.T) {
	loc := time.UTC
	images := []api.Image{
		img("beach", time.Date(2025, 2, 10, 9, 0, 0, 0, loc)),
		img("city", time.Date(2025, 1, 5, 9, 0, 0, 0, loc)),
		img("Beach-2", time.Date(2024, 8, 1, 9, 0, 0, 0, loc)),
	}
	favs := map[string]bool{"city": true, "Beach-2": true}
	isFav := func(id string) bool { return favs[id] }

	require.Equal(t, images, Filter{}.Apply(images, nil))
	require.Equal(t, []string{"city", "Beach-2"}, ids(Filter{FavoritesOnly: true}.Apply(images, isFav)))
	require.Empty(t, Filter{FavoritesOnly: true}.Apply(images, nil))
	require.Equal(t, []string{"beach", "Beach-2"}, ids(Filter{NameContains: "BEACH"}.Apply(images, nil)))
	require.Equal(t, []string{"city"}, ids(Filter{
		Since: time.Date(2025, 1, 1, 0, 0, 0, 0, loc),
		Until: time.Date(2025, 2, 1, 0, 0, 0, 0, loc),
	}.Apply(images, nil)))
}
