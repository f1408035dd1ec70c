package library

import (
	"sync"

	"github.com/osa030/tunedeck/internal/domain/track"
	"github.com/osa030/tunedeck/internal/infra/storage"
)

// Recorder keeps the bounded recently-played list, most recent first.
type Recorder struct {
	mu    sync.RWMutex
	store storage.Store
	limit int
	items []track.Track
}

// NewRecorder loads the recently-played list from store.
func NewRecorder(store storage.Store, limit int) *Recorder {
	if limit <= 0 {
		limit = DefaultRecentMax
	}
	r := &Recorder{store: store, limit: limit, items: make([]track.Track, 0)}
	var items []track.Track
	if load(store, storage.NamespaceRecentlyPlayed, &items) {
		r.items = bound(items, limit)
	}
	return r
}

// Record moves t to the front, dropping any earlier entry with the same ID
// and evicting the oldest beyond the bound. Persistence failures are logged.
func (r *Recorder) Record(t track.Track) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]track.Track, 0, len(r.items)+1)
	items = append(items, t)
	items = append(items, track.RemoveID(r.items, t.ID)...)
	r.items = bound(items, r.limit)

	_ = persist(r.store, storage.NamespaceRecentlyPlayed, r.items)
}

// List returns the recently-played tracks, most recent first.
func (r *Recorder) List() []track.Track {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]track.Track(nil), r.items...)
}

// Clear empties the list.
func (r *Recorder) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make([]track.Track, 0)
	return persist(r.store, storage.NamespaceRecentlyPlayed, r.items)
}

func (r *Recorder) replace(items []track.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = bound(append(make([]track.Track, 0, len(items)), items...), r.limit)
	return persist(r.store, storage.NamespaceRecentlyPlayed, r.items)
}

func bound[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
