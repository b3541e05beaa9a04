package gallery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/galleria/internal/api"
	"github.com/tOgg1/galleria/internal/api/apitest"
)

func drain(t *testing.T, ch <-chan State) []State {
	t.Helper()
	var states []State
	timeout := time.After(5 * time.Second)
	for {
		select {
		case st, ok := <-ch:
			if !ok {
				return states
			}
			states = append(states, st)
		case <-timeout:
			t.Fatalf("loader did not finish; got %d states", len(states))
		}
	}
}

func waitFor(t *testing.T, ch <-chan State, pred func(State) bool) State {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case st, ok := <-ch:
			require.True(t, ok, "channel closed before condition")
			if pred(st) {
				return st
			}
		case <-timeout:
			t.Fatal("timed out waiting for state")
		}
	}
}

func requireInvariants(t *testing.T, states []State) {
	t.Helper()
	for i, st := range states {
		require.LessOrEqual(t, len(st.Items), st.Total, "state %d: items exceed total", i)
		if i > 0 {
			require.GreaterOrEqual(t, st.Page, states[i-1].Page, "state %d: page order", i)
		}
	}
}

func seedBackend(t *testing.T, n int) *apitest.Backend {
	t.Helper()
	backend := apitest.NewBackend(t)
	backend.SeedImages(n, time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC))
	return backend
}

func TestLoadStreamsPagesUntilExhausted(t *testing.T) {
	backend := seedBackend(t, 594)
	loader := NewLoader(backend.Client(t), Options{})

	states := drain(t, loader.Load(context.Background()))
	require.GreaterOrEqual(t, len(states), 3)

	require.True(t, states[0].Loading)
	require.Empty(t, states[0].Items)

	first := states[1]
	require.False(t, first.Loading)
	require.True(t, first.Background)
	require.Len(t, first.Items, 30)
	require.Equal(t, 594, first.Total)

	requireInvariants(t, states)
	final := states[len(states)-1]
	require.False(t, final.Background)
	require.True(t, final.Done())
	require.Empty(t, final.Error)

	// Page 2 at size 60 starts at row 60; the loader fetches until a page
	// comes back empty.
	want := []apitest.PageRequest{{Page: 1, PageSize: 30}}
	for p := 2; p <= 11; p++ {
		want = append(want, apitest.PageRequest{Page: p, PageSize: 60})
	}
	require.Equal(t, want, backend.PageRequests())
	require.Len(t, final.Items, 30+8*60+54)
	require.Equal(t, "img_60", final.Items[30].ID)
	require.Equal(t, final, loader.Snapshot())
}

func TestLoadContiguousFetchesEveryRow(t *testing.T) {
	backend := seedBackend(t, 594)
	loader := NewLoader(backend.Client(t), Options{Contiguous: true})

	states := drain(t, loader.Load(context.Background()))
	requireInvariants(t, states)
	final := states[len(states)-1]
	require.Len(t, final.Items, 594)
	for i, img := range final.Items {
		require.Equal(t, fmt.Sprintf("img_%d", i), img.ID)
	}

	reqs := backend.PageRequests()
	require.Equal(t, apitest.PageRequest{Page: 1, PageSize: 30}, reqs[0])
	require.Equal(t, apitest.PageRequest{Page: 1, PageSize: 60}, reqs[1])
	require.Equal(t, apitest.PageRequest{Page: 10, PageSize: 60}, reqs[len(reqs)-1])
	require.Len(t, reqs, 11)
}

func TestLoadSmallLibrarySinglePage(t *testing.T) {
	backend := seedBackend(t, 12)
	loader := NewLoader(backend.Client(t), Options{})

	states := drain(t, loader.Load(context.Background()))
	final := states[len(states)-1]
	require.Len(t, final.Items, 12)
	require.False(t, final.Background)
	require.Len(t, backend.PageRequests(), 1)
}

func TestLoadEmptyLibrary(t *testing.T) {
	backend := seedBackend(t, 0)
	loader := NewLoader(backend.Client(t), Options{})

	states := drain(t, loader.Load(context.Background()))
	final := states[len(states)-1]
	require.Empty(t, final.Items)
	require.Zero(t, final.Total)
	require.True(t, final.Done())
}

func TestFirstPageFailureIsFatal(t *testing.T) {
	backend := seedBackend(t, 100)
	loader := NewLoader(backend.Client(t), Options{})

	states := drain(t, loader.Load(context.Background()))
	require.Len(t, states[len(states)-1].Items, 70) // page 1 plus rows 60..99

	backend.FailPage(1, http.StatusInternalServerError)
	states = drain(t, loader.Load(context.Background()))

	// Refresh keeps the old rows visible until the first page resolves.
	require.True(t, states[0].Loading)
	require.NotEmpty(t, states[0].Items)

	final := states[len(states)-1]
	require.False(t, final.Loading)
	require.False(t, final.Background)
	require.Empty(t, final.Items)
	require.Zero(t, final.Total)
	require.Contains(t, final.Error, "500")
	require.Equal(t, uint64(2), final.Generation)
}

func TestBackgroundFailureHaltsSilently(t *testing.T) {
	backend := seedBackend(t, 594)
	backend.FailPage(3, http.StatusBadGateway)
	loader := NewLoader(backend.Client(t), Options{})

	states := drain(t, loader.Load(context.Background()))
	final := states[len(states)-1]
	require.Len(t, final.Items, 90)
	require.Equal(t, 594, final.Total)
	require.Empty(t, final.Error)
	require.False(t, final.Background)
	require.Equal(t, 2, final.Page)

	reqs := backend.PageRequests()
	require.Equal(t, 3, reqs[len(reqs)-1].Page)
}

func TestCancelClosesChannel(t *testing.T) {
	backend := seedBackend(t, 594)
	release := backend.HoldPage(2)
	t.Cleanup(release)
	loader := NewLoader(backend.Client(t), Options{})

	ch := loader.Load(context.Background())
	waitFor(t, ch, func(st State) bool { return len(st.Items) == 30 })
	loader.Cancel()
	drain(t, ch)

	snap := loader.Snapshot()
	require.Len(t, snap.Items, 30)
	require.True(t, snap.Done())
}

// gatedFetcher ignores ctx while a gate is closed, simulating a response
// that arrives after its generation was invalidated.
type gatedFetcher struct {
	mu    sync.Mutex
	total int
	pages map[int][]api.Image
	gates map[int]chan struct{}
	calls []int
	err   map[int]error
}

func (f *gatedFetcher) ListImages(_ context.Context, page, pageSize int) (api.ImagePage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, page)
	gate := f.gates[page]
	delete(f.gates, page)
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err[page]; err != nil {
		return api.ImagePage{}, err
	}
	return api.ImagePage{Items: f.pages[page], Page: page, PageSize: pageSize, Total: f.total}, nil
}

func (f *gatedFetcher) called(page int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.calls {
		if p == page {
			return true
		}
	}
	return false
}

func (f *gatedFetcher) setPage(page int, items []api.Image) {
	f.mu.Lock()
	f.pages[page] = items
	f.mu.Unlock()
}

func images(ids ...string) []api.Image {
	out := make([]api.Image, 0, len(ids))
	for _, id := range ids {
		out = append(out, api.Image{ID: id, RelativePath: id + ".jpg"})
	}
	return out
}

func itemIDs(st State) []string {
	out := make([]string, 0, len(st.Items))
	for _, it := range st.Items {
		out = append(out, it.ID)
	}
	return out
}

func TestStaleGenerationIsDropped(t *testing.T) {
	gate := make(chan struct{})
	f := &gatedFetcher{
		total: 4,
		pages: map[int][]api.Image{1: images("a", "b"), 2: images("c", "d")},
		gates: map[int]chan struct{}{2: gate},
	}
	loader := NewLoader(f, Options{FirstPageSize: 2, PageSize: 2})

	ch1 := loader.Load(context.Background())
	waitFor(t, ch1, func(st State) bool { return len(st.Items) == 2 })
	require.Eventually(t, func() bool { return f.called(2) }, 5*time.Second, time.Millisecond)

	ch2 := loader.Load(context.Background())
	states := drain(t, ch2)
	require.Equal(t, []string{"a", "b", "c", "d"}, itemIDs(states[len(states)-1]))

	// The first generation's page 2 now resolves with different rows.
	f.setPage(2, images("stale-1", "stale-2"))
	close(gate)
	for _, st := range drain(t, ch1) {
		require.Equal(t, uint64(1), st.Generation)
		require.LessOrEqual(t, len(st.Items), 2)
	}

	snap := loader.Snapshot()
	require.Equal(t, uint64(2), snap.Generation)
	require.Equal(t, []string{"a", "b", "c", "d"}, itemIDs(snap))
}

func TestDuplicatesSkippedAndTruncatedToTotal(t *testing.T) {
	f := &gatedFetcher{
		total: 4,
		pages: map[int][]api.Image{
			1: images("a", "b"),
			2: images("b", "c", "d", "e"),
		},
	}
	loader := NewLoader(f, Options{FirstPageSize: 2, PageSize: 4})

	states := drain(t, loader.Load(context.Background()))
	requireInvariants(t, states)
	final := states[len(states)-1]
	require.Equal(t, []string{"a", "b", "c", "d"}, itemIDs(final))
	require.False(t, final.Background)
	require.Equal(t, []int{1, 2}, f.calls)
}

func TestFirstPageLargerThanTotalIsTruncated(t *testing.T) {
	f := &gatedFetcher{total: 2, pages: map[int][]api.Image{1: images("a", "b", "c")}}
	loader := NewLoader(f, Options{})

	states := drain(t, loader.Load(context.Background()))
	final := states[len(states)-1]
	require.Equal(t, []string{"a", "b"}, itemIDs(final))
	require.True(t, final.Done())
}

func TestFirstPageErrorMessage(t *testing.T) {
	f := &gatedFetcher{err: map[int]error{1: errors.New("connection refused")}}
	loader := NewLoader(f, Options{})

	states := drain(t, loader.Load(context.Background()))
	require.Equal(t, "connection refused", states[len(states)-1].Error)
}

func TestApplyRenameAndRemove(t *testing.T) {
	f := &gatedFetcher{total: 3, pages: map[int][]api.Image{1: images("a", "b", "c")}}
	loader := NewLoader(f, Options{})
	drain(t, loader.Load(context.Background()))

	renamed := api.Image{ID: "b", Name: "beach.jpg", RelativePath: "beach.jpg"}
	require.True(t, loader.ApplyRename("b.jpg", renamed))
	got, ok := loader.Find("b")
	require.True(t, ok)
	require.Equal(t, "beach.jpg", got.RelativePath)

	// Matching by old path when the backend assigned a new id.
	require.True(t, loader.ApplyRename("c.jpg", api.Image{ID: "c2", RelativePath: "c2.jpg"}))
	_, ok = loader.Find("c")
	require.False(t, ok)
	require.False(t, loader.ApplyRename("zzz.jpg", api.Image{ID: "zzz"}))

	before := loader.Snapshot()
	require.True(t, loader.Remove("a"))
	require.False(t, loader.Remove("a"))
	snap := loader.Snapshot()
	require.Equal(t, 2, snap.Total)
	require.Equal(t, []string{"b", "c2"}, itemIDs(snap))
	require.Equal(t, []string{"a", "b", "c2"}, itemIDs(before), "snapshots are detached")
}
