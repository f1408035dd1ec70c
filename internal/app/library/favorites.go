package library

import (
	"sync"

	"github.com/osa030/tunedeck/internal/domain/track"
	"github.com/osa030/tunedeck/internal/infra/storage"
)

// Favorites keeps favorite tracks, newest first. Re-adding a favorite is a
// no-op, so a track keeps the position of its first add.
type Favorites struct {
	mu    sync.RWMutex
	store storage.Store
	items []track.Track
}

// NewFavorites loads favorites from store.
func NewFavorites(store storage.Store) *Favorites {
	f := &Favorites{store: store, items: make([]track.Track, 0)}
	var items []track.Track
	if load(store, storage.NamespaceFavorites, &items) {
		f.items = items
	}
	return f
}

// Add puts t at the front unless it is already a favorite. It reports
// whether the collection changed.
func (f *Favorites) Add(t track.Track) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if track.ContainsID(f.items, t.ID) {
		return false, nil
	}
	f.items = append([]track.Track{t}, f.items...)
	return true, persist(f.store, storage.NamespaceFavorites, f.items)
}

// Remove drops the favorite with id. It reports whether the collection changed.
func (f *Favorites) Remove(id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !track.ContainsID(f.items, id) {
		return false, nil
	}
	f.items = track.RemoveID(f.items, id)
	return true, persist(f.store, storage.NamespaceFavorites, f.items)
}

// Toggle adds t when absent and removes it otherwise. It returns whether t
// is a favorite afterwards.
func (f *Favorites) Toggle(t track.Track) (bool, error) {
	if f.Contains(t.ID) {
		_, err := f.Remove(t.ID)
		return false, err
	}
	_, err := f.Add(t)
	return f.Contains(t.ID), err
}

// Contains reports whether id is a favorite.
func (f *Favorites) Contains(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return track.ContainsID(f.items, id)
}

// List returns the favorites, newest first.
func (f *Favorites) List() []track.Track {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]track.Track(nil), f.items...)
}

func (f *Favorites) replace(items []track.Track) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(make([]track.Track, 0, len(items)), items...)
	return persist(f.store, storage.NamespaceFavorites, f.items)
}
