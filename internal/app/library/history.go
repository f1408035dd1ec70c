package library

import (
	"strings"
	"sync"

	"github.com/osa030/tunedeck/internal/infra/storage"
)

// SearchHistory keeps recent search queries, most recent first.
type SearchHistory struct {
	mu    sync.RWMutex
	store storage.Store
	limit int
	items []string
}

// NewSearchHistory loads the search history from store.
func NewSearchHistory(store storage.Store, limit int) *SearchHistory {
	if limit <= 0 {
		limit = DefaultSearchHistoryMax
	}
	h := &SearchHistory{store: store, limit: limit, items: make([]string, 0)}
	var items []string
	if load(store, storage.NamespaceSearchHistory, &items) {
		h.items = bound(items, limit)
	}
	return h
}

// Add moves query to the front. Blank queries are ignored.
func (h *SearchHistory) Add(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	items := make([]string, 0, len(h.items)+1)
	items = append(items, query)
	for _, q := range h.items {
		if q != query {
			items = append(items, q)
		}
	}
	h.items = bound(items, h.limit)
	return persist(h.store, storage.NamespaceSearchHistory, h.items)
}

// Remove drops query from the history.
func (h *SearchHistory) Remove(query string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	items := make([]string, 0, len(h.items))
	for _, q := range h.items {
		if q != query {
			items = append(items, q)
		}
	}
	h.items = items
	return persist(h.store, storage.NamespaceSearchHistory, h.items)
}

// Clear empties the history.
func (h *SearchHistory) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = make([]string, 0)
	return persist(h.store, storage.NamespaceSearchHistory, h.items)
}

// List returns the queries, most recent first.
func (h *SearchHistory) List() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.items...)
}

func (h *SearchHistory) replace(items []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = bound(append(make([]string, 0, len(items)), items...), h.limit)
	return persist(h.store, storage.NamespaceSearchHistory, h.items)
}
