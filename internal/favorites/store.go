// Package favorites keeps the set of favorited image ids and mirrors it to
// durable storage.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/galleria/internal/kvstore"
	"github.com/tOgg1/galleria/internal/logging"
)

// Key is the storage key holding the JSON array of ids.
var Key = kvstore.Namespaced("galleria", "favorites")

const persistTimeout = 5 * time.Second

// Set is an immutable snapshot of favorited ids.
type Set map[string]struct{}

// Has reports membership.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in lexical order.
func (s Set) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Store owns the favorites set. The in-memory set is authoritative; storage
// errors are logged and never returned.
type Store struct {
	backend kvstore.Store
	log     zerolog.Logger

	// writeMu orders toggles with their writes so storage always ends up
	// with the latest set.
	writeMu sync.Mutex

	mu  sync.RWMutex
	ids map[string]struct{}
}

// New returns an empty store over backend. Call Load to read persisted ids.
func New(backend kvstore.Store) *Store {
	return &Store{
		backend: backend,
		log:     logging.Component("favorites"),
		ids:     make(map[string]struct{}),
	}
}

// Load replaces the in-memory set with the persisted one. A missing key, a
// read error or undecodable data all yield an empty set.
func (s *Store) Load(ctx context.Context) Set {
	ids := s.read(ctx)

	s.mu.Lock()
	s.ids = ids
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return snap
}

func (s *Store) read(ctx context.Context) map[string]struct{} {
	out := make(map[string]struct{})
	if s.backend == nil {
		return out
	}
	raw, err := s.backend.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			s.log.Warn().Err(err).Msg("read favorites")
		}
		return out
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		s.log.Warn().Err(err).Msg("decode favorites")
		return out
	}
	for _, id := range list {
		if id = strings.TrimSpace(id); id != "" {
			out[id] = struct{}{}
		}
	}
	return out
}

// Toggle removes id when present and adds it otherwise, persists the full
// set and returns the new snapshot. Blank ids leave the set unchanged.
func (s *Store) Toggle(ctx context.Context, id string) Set {
	id = strings.TrimSpace(id)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if id == "" {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, snap)
	return snap
}

// Clear empties the set and removes the stored key. It returns how many
// favorites were dropped.
func (s *Store) Clear(ctx context.Context) int {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	n := len(s.ids)
	s.ids = make(map[string]struct{})
	s.mu.Unlock()

	if s.backend == nil {
		return n
	}
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	if err := s.backend.Delete(ctx, Key); err != nil {
		s.log.Warn().Err(err).Msg("clear favorites")
	}
	return n
}

func (s *Store) persist(ctx context.Context, snap Set) {
	if s.backend == nil {
		return
	}
	payload, err := json.Marshal(snap.Sorted())
	if err != nil {
		s.log.Warn().Err(err).Msg("encode favorites")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	if err := s.backend.Set(ctx, Key, payload); err != nil {
		s.log.Warn().Err(err).Int("count", len(snap)).Msg("persist favorites")
	}
}

// Contains reports whether id is a favorite.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Snapshot returns a copy of the current set.
func (s *Store) Snapshot() Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// IDs returns the favorites in lexical order.
func (s *Store) IDs() []string {
	return s.Snapshot().Sorted()
}

// Len returns the number of favorites.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *Store) snapshotLocked() Set {
	out := make(Set, len(s.ids))
	for id := range s.ids {
		out[id] = struct{}{}
	}
	return out
}
