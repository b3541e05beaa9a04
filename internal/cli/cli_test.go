package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/galleria/internal/api"
	"github.com/tOgg1/galleria/internal/api/apitest"
	"github.com/tOgg1/galleria/internal/timeline"
)

type cliEnv struct {
	backend  *apitest.Backend
	stateDir string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	return &cliEnv{
		backend:  apitest.NewBackend(t),
		stateDir: filepath.Join(home, "state"),
	}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd, a := newRoot(BuildInfo{Version: "test"})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	base := []string{"--server", e.backend.URL(), "--state-dir", e.stateDir, "--log-level", "error"}
	cmd.SetArgs(append(base, args...))
	err := a.run(context.Background(), cmd)
	return out.String(), err
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "galleria %s", strings.Join(args, " "))
	return out
}

func lineWith(t *testing.T, out, needle string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, needle) {
			return line
		}
	}
	t.Fatalf("no line containing %q in:\n%s", needle, out)
	return ""
}

func TestViewsListsNavigationOrder(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "views")
	require.Contains(t, lineWith(t, out, "all"), "All Photos")
	require.Contains(t, lineWith(t, out, "timeline"), "4")

	out = env.mustRun(t, "views", "--json")
	var views []viewOutput
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 5)
	require.Equal(t, "all", views[0].Key)
	require.Equal(t, "People", views[1].Title)
	require.Equal(t, 5, views[4].Position)
}

func TestImagesListMarksFavorites(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.SeedImages(5, time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local))

	require.Equal(t, "Added to favorites\n", env.mustRun(t, "favorites", "toggle", "img_1"))

	out := env.mustRun(t, "images", "list", "--page-size", "3")
	require.Contains(t, out, "ID")
	require.Contains(t, lineWith(t, out, "img_1"), "yes")
	require.Contains(t, lineWith(t, out, "img_0"), "no")
	require.Contains(t, lineWith(t, out, "img_0"), "1.0 kB")
	require.NotContains(t, out, "img_3")

	require.Equal(t, "img_1\n", env.mustRun(t, "favorites", "list"))
	require.Equal(t, "Removed from favorites\n", env.mustRun(t, "favorites", "toggle", "img_1"))
	require.Equal(t, "No favorites yet.\n", env.mustRun(t, "favorites", "list"))

	env.mustRun(t, "favorites", "toggle", "img_2")
	env.mustRun(t, "favorites", "toggle", "img_4")
	require.Equal(t, "Cleared 2 favorites\n", env.mustRun(t, "favorites", "clear"))
	require.Equal(t, "No favorites yet.\n", env.mustRun(t, "favorites", "list"))
}

func TestImagesListAllStreamsEveryPage(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.SeedImages(130, time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local))

	out := env.mustRun(t, "images", "list", "--all", "--json")
	var rows []imageRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 130)
	require.Equal(t, "img_0", rows[0].ID)
	require.Equal(t, "img_129", rows[129].ID)
	require.Equal(t, 3, len(env.backend.PageRequests()))
}

func TestImagesListJSONLines(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.SeedImages(3, time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local))

	out := env.mustRun(t, "images", "list", "--jsonl")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	var row imageRow
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &row))
	require.Equal(t, "album/img_0002.jpg", row.RelativePath)
	require.False(t, row.Favorite)
}

func TestFirstPageFailureIsReported(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.SeedImages(3, time.Now())
	env.backend.FailPage(1, 500)

	_, err := env.run(t, "images", "list", "--all")
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
}

func TestImagesRenameAndDelete(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.SeedImages(3, time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local))

	require.Equal(t, "Renamed to beach.jpg\n", env.mustRun(t, "images", "rename", "album/img_0000.jpg", "beach"))

	_, err := env.run(t, "images", "rename", "album/img_0001.jpg", "beach")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Target already exists: album/beach.jpg")

	require.Equal(t, "Moved album/img_0002.jpg to trash\n", env.mustRun(t, "images", "delete", "album/img_0002.jpg"))
	require.Len(t, env.backend.Images(), 2)

	out := env.mustRun(t, "images", "delete", "album/beach.jpg", "--json")
	var res resultOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, "delete image", res.Command)
	require.Equal(t, ".trash/album/beach.jpg", res.Path)
}

func TestQuietSuppressesConfirmation(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.SeedImages(1, time.Now())

	require.Empty(t, env.mustRun(t, "-q", "favorites", "toggle", "img_0"))
	require.Equal(t, "img_0\n", env.mustRun(t, "favorites", "list"))
}

func TestImagesURL(t *testing.T) {
	env := newCLIEnv(t)
	origin := strings.TrimSuffix(env.backend.URL(), "/api")

	require.Equal(t, origin+"/media/album/a%20b.jpg\n", env.mustRun(t, "images", "url", "album/a b.jpg"))
	require.Equal(t, origin+"/thumbnails/small/album/a%20b.jpg\n", env.mustRun(t, "images", "url", "album/a b.jpg", "--size", "small"))

	_, err := env.run(t, "images", "url", "  ")
	require.Error(t, err)
}

func seedTimeline(env *cliEnv) {
	at := func(y int, m time.Month, d int) api.Timestamp {
		return api.NewTimestamp(time.Date(y, m, d, 12, 0, 0, 0, time.Local))
	}
	env.backend.SetImages([]api.Image{
		{ID: "a", Name: "a.jpg", RelativePath: "a.jpg", SizeBytes: 2048, ModifiedAt: at(2020, 3, 2)},
		{ID: "b", Name: "b.jpg", RelativePath: "b.jpg", SizeBytes: 2048, ModifiedAt: at(2020, 3, 2)},
		{ID: "c", Name: "c.jpg", RelativePath: "c.jpg", SizeBytes: 2048, ModifiedAt: at(2020, 2, 14)},
		{ID: "d", Name: "d.jpg", RelativePath: "d.jpg", SizeBytes: 2048, ModifiedAt: at(2019, 12, 31)},
	})
}

func TestTimelineGroupsByDay(t *testing.T) {
	env := newCLIEnv(t)
	seedTimeline(env)

	out := env.mustRun(t, "timeline")
	require.Contains(t, out, "2020\n  March\n    Monday, March 2, 2020 (2)\n      a.jpg")
	require.Contains(t, out, "  February\n    Friday, February 14, 2020 (1)\n")
	require.Contains(t, out, "2019\n  December\n    Tuesday, December 31, 2019 (1)\n")

	out = env.mustRun(t, "timeline", "--json")
	var days []timelineDay
	require.NoError(t, json.Unmarshal([]byte(out), &days))
	require.Len(t, days, 3)
	require.Equal(t, "2020-03-02", days[0].Day)
	require.Equal(t, []string{"a", "b"}, days[0].Images)
}

func TestTimelineMonthsAndFilters(t *testing.T) {
	env := newCLIEnv(t)
	seedTimeline(env)

	out := env.mustRun(t, "timeline", "--months", "--json")
	var months []timeline.MonthBucket
	require.NoError(t, json.Unmarshal([]byte(out), &months))
	require.Equal(t, []timeline.MonthBucket{
		{Key: "2020-03", Label: "March 2020", Count: 2},
		{Key: "2020-02", Label: "February 2020", Count: 1},
		{Key: "2019-12", Label: "December 2019", Count: 1},
	}, months)

	out = env.mustRun(t, "timeline", "--months", "--since", "2020-01-01")
	require.Contains(t, lineWith(t, out, "2020-02"), "1")
	require.NotContains(t, out, "2019-12")

	env.mustRun(t, "favorites", "toggle", "c")
	out = env.mustRun(t, "timeline", "--favorites", "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &[]timelineDay{}))
	require.Contains(t, out, `"2020-02-14"`)
	require.NotContains(t, out, `"2020-03-02"`)

	_, err := env.run(t, "timeline", "--since", "March")
	require.Error(t, err)
	require.Contains(t, err.Error(), "--since")
}

func TestPersonsLifecycle(t *testing.T) {
	env := newCLIEnv(t)

	require.Equal(t, "No persons yet.\n", env.mustRun(t, "persons", "list"))
	require.Equal(t, "Created Alice\n", env.mustRun(t, "persons", "create", "Alice"))
	require.Equal(t, "Created Bob\n", env.mustRun(t, "persons", "create", "Bob"))

	out := env.mustRun(t, "persons", "list")
	require.Contains(t, lineWith(t, out, "person-1"), "Alice")
	require.Contains(t, lineWith(t, out, "person-2"), "Bob")

	require.Equal(t, "Renamed to Robert\n", env.mustRun(t, "persons", "rename", "person-2", "Robert"))
	require.Equal(t, "Merged into Alice\n", env.mustRun(t, "persons", "merge", "person-1", "person-2"))

	out = env.mustRun(t, "persons", "list", "--json")
	var persons []api.Person
	require.NoError(t, json.Unmarshal([]byte(out), &persons))
	require.Len(t, persons, 1)
	require.Equal(t, "Alice", persons[0].Label)

	require.Equal(t, "Person deleted\n", env.mustRun(t, "persons", "delete", "person-1"))

	_, err := env.run(t, "persons", "rename", "person-9", "Nobody")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Person not found")
}

func TestFacesAssignListAndClusters(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.SetPersons([]api.Person{{ID: "p1", Label: "Alice"}})
	env.backend.SetFaces([]api.Face{
		{ID: "f1", RelativePath: "trip/1.jpg", Confidence: 0.91},
		{ID: "f2", RelativePath: "trip/2.jpg", Confidence: 0.88},
		{ID: "f3", RelativePath: "home/1.jpg", Confidence: 0.75},
	})

	require.Equal(t, "Assigned 1 face(s)\n", env.mustRun(t, "persons", "assign", "p1", "f3"))

	out := env.mustRun(t, "faces", "list", "--status", "unassigned")
	require.Contains(t, out, "f1")
	require.Contains(t, out, "f2")
	require.NotContains(t, out, "f3")

	out = env.mustRun(t, "faces", "list", "--person", "p1")
	require.Contains(t, lineWith(t, out, "f3"), "p1")

	out = env.mustRun(t, "faces", "list", "--limit", "1")
	require.Contains(t, out, "showing 1-1 of 3")

	out = env.mustRun(t, "faces", "clusters", "--json")
	var clusters api.ClusterList
	require.NoError(t, json.Unmarshal([]byte(out), &clusters))
	require.Equal(t, 1, clusters.TotalClusters)
	require.Equal(t, []string{"f1", "f2"}, clusters.Clusters[0].FaceIDs)

	out = env.mustRun(t, "faces", "clusters", "--all")
	require.Contains(t, out, "f3")

	require.Equal(t, "Unassigned 1 face(s)\n", env.mustRun(t, "persons", "unassign", "p1", "f3"))

	_, err := env.run(t, "faces", "list", "--status", "maybe")
	require.ErrorIs(t, err, api.ErrInvalidArgument)
	_, err = env.run(t, "faces", "clusters", "--threshold", "2")
	require.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestStorageAndScan(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.SeedImages(4, time.Now())

	out := env.mustRun(t, "storage")
	require.Contains(t, lineWith(t, out, "/srv/photos"), "4")

	out = env.mustRun(t, "storage", "--yaml")
	require.Contains(t, out, "image_count: 4")
	require.Contains(t, out, "media_path: /srv/photos")

	require.Equal(t, "Face scanning started\n", env.mustRun(t, "scan", "start"))
	_, err := env.run(t, "scan", "start")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Scan is already running")

	out = env.mustRun(t, "scan", "status", "--json")
	var st api.ScanStatus
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	require.True(t, st.IsRunning)
	require.Equal(t, 4, st.TotalImages)

	require.Equal(t, "Face scanning will stop after current image\n", env.mustRun(t, "scan", "stop"))

	require.Equal(t, "Media sync started in background\n", env.mustRun(t, "scan", "sync"))
	out = env.mustRun(t, "scan", "sync-status")
	require.Contains(t, out, "SCANNED")
	require.True(t, strings.HasPrefix(strings.Split(out, "\n")[1], "yes"))
}

func TestInvalidServerIsRejected(t *testing.T) {
	env := newCLIEnv(t)
	cmd, a := newRoot(BuildInfo{Version: "test"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--server", "ftp://example.com", "--state-dir", env.stateDir, "views"})
	err := a.run(context.Background(), cmd)
	require.Error(t, err)
	require.Contains(t, err.Error(), "server.url must use http or https")
}

func TestServerFromEnvironment(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.SeedImages(2, time.Now())
	t.Setenv("GALLERIA_SERVER_URL", env.backend.URL())

	cmd, a := newRoot(BuildInfo{Version: "test"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--state-dir", env.stateDir, "images", "list"})
	require.NoError(t, a.run(context.Background(), cmd))
	require.Contains(t, out.String(), "img_1")
	require.Nil(t, a.store)
}

func TestFailedCommandReleasesState(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.SeedImages(3, time.Now())
	env.backend.FailPage(1, 500)

	cmd, a := newRoot(BuildInfo{Version: "test"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--server", env.backend.URL(), "--state-dir", env.stateDir, "favorites", "list", "--details"})
	require.Error(t, a.run(context.Background(), cmd))
	require.Nil(t, a.store)
	require.Nil(t, a.favs)

	// The database is free for the next invocation.
	require.Equal(t, "Added to favorites\n", env.mustRun(t, "favorites", "toggle", "img_0"))
}

func TestUIRequiresTerminal(t *testing.T) {
	env := newCLIEnv(t)
	prev := isInteractive
	isInteractive = func() bool { return false }
	t.Cleanup(func() { isInteractive = prev })

	_, err := env.run(t, "ui")
	require.ErrorIs(t, err, ErrNoTTY)
	_, err = env.run(t)
	require.ErrorIs(t, err, ErrNoTTY)
}

func TestUIDepsShareFavorites(t *testing.T) {
	env := newCLIEnv(t)
	env.backend.SeedImages(2, time.Now())
	env.mustRun(t, "favorites", "toggle", "img_0")

	a := &app{version: "test", now: time.Now}
	root := NewRootCmd("test")
	root.SetErr(&bytes.Buffer{})
	root.SetContext(context.Background())
	require.NoError(t, root.ParseFlags([]string{"--server", env.backend.URL(), "--state-dir", env.stateDir}))
	require.NoError(t, a.setup(root))
	t.Cleanup(func() { _ = a.close() })

	deps, err := a.uiDeps(root)
	require.NoError(t, err)
	require.True(t, deps.Favorites.Contains("img_0"))
	require.Same(t, deps.Favorites, a.favs)
	require.NotNil(t, deps.Loader)
	require.Equal(t, filepath.Join(env.stateDir, "session.yaml"), deps.Sessions.Path())
	require.Equal(t, strings.TrimSuffix(env.backend.URL(), "/api"), deps.Resolver.Base)
}

func TestVersionIncludesBuild(t *testing.T) {
	require.Equal(t, "dev", BuildInfo{Commit: "none", Date: "unknown"}.String())
	require.Equal(t, "1.2.0 (commit abc123)", BuildInfo{Version: "1.2.0", Commit: "abc123"}.String())

	cmd, a := newRoot(BuildInfo{Version: "1.2.0", Commit: "abc123", Date: "2026-10-01"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})
	require.NoError(t, a.run(context.Background(), cmd))
	require.Equal(t, "galleria version 1.2.0 (commit abc123, built 2026-10-01)\n", out.String())
	require.Equal(t, "galleria/1.2.0", userAgent("", a.version))
}
