// Package library keeps the user's playlists, favorites, histories and
// preferences, mirrored in memory and persisted through a storage.Store.
//
// The in-memory mirror is authoritative for the session. When persistence
// fails the change is kept, a warning is logged and the error is returned.
package library

import (
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/infra/storage"
)

// Defaults
const (
	DefaultRecentMax        = 50
	DefaultSearchHistoryMax = 20
)

// Config holds library configuration.
type Config struct {
	RecentMax        int // Bound of the recently-played list
	SearchHistoryMax int // Bound of the search history
}

// Library groups the per-namespace collections over one store.
type Library struct {
	Recent    *Recorder
	Favorites *Favorites
	Playlists *Playlists
	History   *SearchHistory
	Settings  *SettingsStore
	Theme     *ThemeStore

	now func() time.Time
}

// Option configures a Library.
type Option func(*Library)

// WithNow overrides the clock used for timestamps.
func WithNow(now func() time.Time) Option {
	return func(l *Library) {
		l.now = now
	}
}

// New loads every collection from store.
func New(store storage.Store, config Config, opts ...Option) *Library {
	l := &Library{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	if config.RecentMax <= 0 {
		config.RecentMax = DefaultRecentMax
	}
	if config.SearchHistoryMax <= 0 {
		config.SearchHistoryMax = DefaultSearchHistoryMax
	}

	l.Recent = NewRecorder(store, config.RecentMax)
	l.Favorites = NewFavorites(store)
	l.Playlists = NewPlaylists(store, l.now)
	l.History = NewSearchHistory(store, config.SearchHistoryMax)
	l.Settings = NewSettingsStore(store)
	l.Theme = NewThemeStore(store)
	return l
}

// load decodes ns into v. Failures are logged and reported as not found.
func load(store storage.Store, ns storage.Namespace, v any) bool {
	found, err := store.Get(ns, v)
	if err != nil {
		zlog.Warn().Err(err).Msgf("library: failed to load %s, using defaults", ns)
		return false
	}
	return found
}

// persist stores v under ns, logging failures.
func persist(store storage.Store, ns storage.Namespace, v any) error {
	if err := store.Set(ns, v); err != nil {
		zlog.Warn().Err(err).Msgf("library: failed to persist %s", ns)
		return errors.Wrapf(err, "persist %s", ns)
	}
	return nil
}
