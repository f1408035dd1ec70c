package library

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/tunedeck/internal/domain/playlist"
	"github.com/osa030/tunedeck/internal/domain/track"
)

// BackupVersion is written into every export.
const BackupVersion = "1.0.0"

// Backup is a full export of the library.
type Backup struct {
	Playlists      []playlist.Playlist `json:"playlists"`
	Favorites      []track.Track       `json:"favorites"`
	RecentlyPlayed []track.Track       `json:"recentlyPlayed"`
	SearchHistory  []string            `json:"searchHistory"`
	PlayerSettings *Settings           `json:"playerSettings"`
	Theme          Theme               `json:"theme"`
	ExportDate     time.Time           `json:"exportDate"`
	Version        string              `json:"version"`
}

// Export snapshots every collection.
func (l *Library) Export() Backup {
	settings := l.Settings.Get()
	return Backup{
		Playlists:      l.Playlists.List(),
		Favorites:      l.Favorites.List(),
		RecentlyPlayed: l.Recent.List(),
		SearchHistory:  l.History.List(),
		PlayerSettings: &settings,
		Theme:          l.Theme.Get(),
		ExportDate:     l.now().UTC(),
		Version:        BackupVersion,
	}
}

// Import replaces every collection with the contents of b. Missing parts
// are replaced by empty collections or defaults. Every namespace is
// attempted; the combined persistence error is returned.
func (l *Library) Import(b Backup) error {
	settings := DefaultSettings()
	if b.PlayerSettings != nil {
		settings = *b.PlayerSettings
	}
	theme := b.Theme
	if !theme.Valid() {
		theme = DefaultTheme
	}
	for _, t := range append(append([]track.Track(nil), b.Favorites...), b.RecentlyPlayed...) {
		if err := t.Validate(); err != nil {
			return errors.Wrap(err, "invalid backup")
		}
	}

	var errs error
	errs = errors.CombineErrors(errs, l.Playlists.replace(b.Playlists))
	errs = errors.CombineErrors(errs, l.Favorites.replace(b.Favorites))
	errs = errors.CombineErrors(errs, l.Recent.replace(b.RecentlyPlayed))
	errs = errors.CombineErrors(errs, l.History.replace(b.SearchHistory))
	errs = errors.CombineErrors(errs, l.Settings.Save(settings))
	errs = errors.CombineErrors(errs, l.Theme.Set(theme))
	return errs
}
