// Package gallery loads the image library page by page: the first page
// unblocks rendering, the rest stream in behind it.
package gallery

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tOgg1/galleria/internal/api"
	"github.com/tOgg1/galleria/internal/logging"
)

const (
	DefaultFirstPageSize = 30
	DefaultPageSize      = 60

	updateBuffer = 16
)

// Fetcher returns one page of images in server order.
type Fetcher interface {
	ListImages(ctx context.Context, page, pageSize int) (api.ImagePage, error)
}

// State is a snapshot of the gallery. len(Items) never exceeds Total.
type State struct {
	Items []api.Image
	Total int
	// Loading is true until the first page of the generation resolves.
	Loading bool
	// Background is true while later pages are still being fetched.
	Background bool
	// Error is set when the first page failed; Items is then empty.
	Error      string
	Generation uint64
	// Page is the last page applied.
	Page int
}

// Done reports whether every row the server announced is loaded.
func (s State) Done() bool {
	return !s.Loading && !s.Background
}

// Options tunes paging.
type Options struct {
	FirstPageSize int
	PageSize      int
	// Contiguous aligns background pages to PageSize offsets so that rows
	// between the first page and the second PageSize boundary are not
	// skipped.
	Contiguous bool
	Logger     *zerolog.Logger
}

// Token ties a fetch sequence to its generation. A token stops being
// current when a newer Load starts or its context is cancelled.
type Token struct {
	Generation uint64
	ctx        context.Context
}

// Loader owns the gallery state. All mutation goes through its methods.
type Loader struct {
	fetcher Fetcher
	opts    Options
	log     zerolog.Logger

	mu     sync.Mutex
	state  State
	ids    map[string]struct{}
	gen    uint64
	cancel context.CancelFunc
}

// NewLoader returns an idle loader.
func NewLoader(fetcher Fetcher, opts Options) *Loader {
	if opts.FirstPageSize <= 0 {
		opts.FirstPageSize = DefaultFirstPageSize
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	log := logging.Component("gallery")
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Loader{
		fetcher: fetcher,
		opts:    opts,
		log:     log,
		ids:     make(map[string]struct{}),
	}
}

// Load starts a new generation, cancelling any sequence in flight. The
// returned channel receives every state update of this generation and is
// closed when the sequence ends.
func (l *Loader) Load(ctx context.Context) <-chan State {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	tok := Token{Generation: l.gen, ctx: runCtx}

	l.state.Loading = true
	l.state.Background = false
	l.state.Error = ""
	l.state.Generation = l.gen
	initial := l.snapshotLocked()
	l.mu.Unlock()

	out := make(chan State, updateBuffer)
	go l.run(tok, cancel, out, initial)
	return out
}

// Cancel stops the current sequence. Its channel is closed without
// further updates and the rows loaded so far stay in place.
func (l *Loader) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.state.Loading = false
	l.state.Background = false
}

// Generation returns the current generation counter.
func (l *Loader) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

// Snapshot returns a copy of the current state.
func (l *Loader) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Loader) run(tok Token, cancel context.CancelFunc, out chan<- State, initial State) {
	defer close(out)
	defer cancel()

	if !send(tok, out, initial) {
		return
	}

	first, err := l.fetcher.ListImages(tok.ctx, 1, l.opts.FirstPageSize)
	if err != nil {
		st, ok := l.apply(tok, func(s *State) {
			s.Items = nil
			s.Total = 0
			s.Error = err.Error()
			s.Loading = false
			s.Background = false
			s.Page = 0
		}, !errors.Is(err, context.Canceled))
		if ok {
			l.log.Warn().Err(err).Uint64("generation", tok.Generation).Msg("first page failed")
			send(tok, out, st)
		}
		return
	}

	st, ok := l.apply(tok, func(s *State) {
		s.Items = nil
		s.Total = first.Total
		s.Error = ""
		s.Loading = false
		s.Page = 1
		l.resetIDsLocked()
		l.appendLocked(s, first.Items)
		s.Background = len(first.Items) > 0 && len(s.Items) < s.Total
	}, false)
	if !ok || !send(tok, out, st) || !st.Background {
		return
	}

	l.background(tok, out, len(first.Items))
}

func (l *Loader) background(tok Token, out chan<- State, fetched int) {
	pageSize := l.opts.PageSize
	next := 2
	skip := 0
	if l.opts.Contiguous {
		next = fetched/pageSize + 1
		skip = fetched - (next-1)*pageSize
	}

	for {
		page, err := l.fetcher.ListImages(tok.ctx, next, pageSize)
		if err != nil {
			if !l.current(tok) {
				return
			}
			if !errors.Is(err, context.Canceled) {
				l.log.Warn().Err(err).Int("page", next).Uint64("generation", tok.Generation).Msg("background page failed")
			}
			if st, ok := l.apply(tok, func(s *State) { s.Background = false }, false); ok {
				send(tok, out, st)
			}
			return
		}

		rows := page.Items
		if skip > 0 {
			if skip > len(rows) {
				skip = len(rows)
			}
			rows = rows[skip:]
			skip = 0
		}

		empty := len(page.Items) == 0
		st, ok := l.apply(tok, func(s *State) {
			if page.Total > 0 || empty {
				s.Total = page.Total
			}
			if !empty {
				s.Page = next
			}
			l.appendLocked(s, rows)
			s.Background = !empty && len(s.Items) < s.Total
		}, false)
		if !ok || !send(tok, out, st) || !st.Background {
			return
		}
		next++
	}
}

func send(tok Token, out chan<- State, st State) bool {
	select {
	case out <- st:
		return true
	default:
	}
	select {
	case out <- st:
		return true
	case <-tok.ctx.Done():
		return false
	}
}

// apply runs fn on the state if tok is still current and returns the new
// snapshot. force skips the context check so a first page that hit its
// deadline still reports the error.
func (l *Loader) apply(tok Token, fn func(*State), force bool) (State, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tok.Generation != l.gen {
		return State{}, false
	}
	if !force && tok.ctx.Err() != nil {
		return State{}, false
	}
	fn(&l.state)
	return l.snapshotLocked(), true
}

func (l *Loader) current(tok Token) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return tok.Generation == l.gen && tok.ctx.Err() == nil
}

func (l *Loader) resetIDsLocked() {
	l.ids = make(map[string]struct{})
}

// appendLocked adds rows in order, skipping ids already present, and keeps
// len(Items) <= Total.
func (l *Loader) appendLocked(s *State, rows []api.Image) {
	for _, img := range rows {
		if len(s.Items) >= s.Total {
			break
		}
		if _, dup := l.ids[img.ID]; dup {
			continue
		}
		l.ids[img.ID] = struct{}{}
		s.Items = append(s.Items, img)
	}
	if len(s.Items) > s.Total {
		for _, img := range s.Items[s.Total:] {
			delete(l.ids, img.ID)
		}
		s.Items = s.Items[:s.Total]
	}
}

func (l *Loader) snapshotLocked() State {
	st := l.state
	st.Items = append([]api.Image(nil), l.state.Items...)
	return st
}

// ApplyRename replaces the row for img.ID (or, failing that, the row at
// oldPath) with img. It reports whether a row changed.
func (l *Loader) ApplyRename(oldPath string, img api.Image) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := -1
	for i, it := range l.state.Items {
		if it.ID == img.ID {
			idx = i
			break
		}
	}
	if idx < 0 && oldPath != "" {
		for i, it := range l.state.Items {
			if it.RelativePath == oldPath {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return false
	}
	delete(l.ids, l.state.Items[idx].ID)
	l.ids[img.ID] = struct{}{}
	l.state.Items[idx] = img
	return true
}

// Remove drops the row with id and decrements Total. It reports whether a
// row was removed.
func (l *Loader) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, it := range l.state.Items {
		if it.ID != id {
			continue
		}
		l.state.Items = append(l.state.Items[:i:i], l.state.Items[i+1:]...)
		delete(l.ids, id)
		if l.state.Total > 0 {
			l.state.Total--
		}
		return true
	}
	return false
}

// Find returns the row with id.
func (l *Loader) Find(id string) (api.Image, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range l.state.Items {
		if it.ID == id {
			return it, true
		}
	}
	return api.Image{}, false
}
