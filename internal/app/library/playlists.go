package library

import (
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/tunedeck/internal/domain/playlist"
	"github.com/osa030/tunedeck/internal/domain/track"
	"github.com/osa030/tunedeck/internal/infra/storage"
)

// Default playlist created when the library has none.
const (
	LikedSongsID          = "liked-songs"
	likedSongsName        = "Liked Songs"
	likedSongsDescription = "Your favorite songs"
	likedSongsCover       = "https://placehold.co/300x300?text=Liked+Songs+Heart+Love+Music+Collection"
)

var ErrPlaylistNotFound = errors.New("playlist not found")

// Playlists keeps the user's playlists in creation order.
type Playlists struct {
	mu    sync.RWMutex
	store storage.Store
	now   func() time.Time
	items []*playlist.Playlist
}

// NewPlaylists loads playlists from store, creating the default playlist
// when there are none.
func NewPlaylists(store storage.Store, now func() time.Time) *Playlists {
	if now == nil {
		now = time.Now
	}
	p := &Playlists{store: store, now: now, items: make([]*playlist.Playlist, 0)}
	var items []*playlist.Playlist
	if load(store, storage.NamespacePlaylists, &items) {
		p.items = items
	}
	if len(p.items) == 0 {
		p.items = append(p.items, likedSongs(now()))
		_ = persist(store, storage.NamespacePlaylists, p.items)
	}
	return p
}

func likedSongs(now time.Time) *playlist.Playlist {
	return &playlist.Playlist{
		ID:          LikedSongsID,
		Name:        likedSongsName,
		Description: likedSongsDescription,
		CoverImage:  likedSongsCover,
		Tracks:      make([]track.Track, 0),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Create adds a new empty playlist.
func (p *Playlists) Create(name, description string) (playlist.Playlist, error) {
	pl, err := playlist.New(name, description, p.now())
	if err != nil {
		return playlist.Playlist{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, pl)
	return clonePlaylist(pl), p.persistLocked()
}

// Get returns the playlist with id.
func (p *Playlists) Get(id string) (playlist.Playlist, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if pl := p.findLocked(id); pl != nil {
		return clonePlaylist(pl), true
	}
	return playlist.Playlist{}, false
}

// List returns every playlist in creation order.
func (p *Playlists) List() []playlist.Playlist {
	p.mu.RLock()
	defer p.mu.RUnlock()
	result := make([]playlist.Playlist, len(p.items))
	for i, pl := range p.items {
		result[i] = clonePlaylist(pl)
	}
	return result
}

// Update applies fn to the playlist with id and bumps its update time.
// The ID and creation time cannot be changed, and the name must stay
// non-empty.
func (p *Playlists) Update(id string, fn func(*playlist.Playlist)) (playlist.Playlist, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pl := p.findLocked(id)
	if pl == nil {
		return playlist.Playlist{}, errors.Wrapf(ErrPlaylistNotFound, "id %s", id)
	}
	updated := clonePlaylist(pl)
	fn(&updated)
	updated.Name = strings.TrimSpace(updated.Name)
	if updated.Name == "" {
		return clonePlaylist(pl), playlist.ErrEmptyName
	}
	updated.ID = pl.ID
	updated.CreatedAt = pl.CreatedAt
	updated.UpdatedAt = p.now()
	*pl = updated
	return clonePlaylist(pl), p.persistLocked()
}

// Delete removes the playlist with id.
func (p *Playlists) Delete(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, pl := range p.items {
		if pl.ID == id {
			p.items = append(p.items[:i], p.items[i+1:]...)
			return p.persistLocked()
		}
	}
	return errors.Wrapf(ErrPlaylistNotFound, "id %s", id)
}

// AddTrack appends t to the playlist unless it is already there. It reports
// whether the playlist changed.
func (p *Playlists) AddTrack(id string, t track.Track) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	pl := p.findLocked(id)
	if pl == nil {
		return false, errors.Wrapf(ErrPlaylistNotFound, "id %s", id)
	}
	if !pl.AddTrack(t, p.now()) {
		return false, nil
	}
	return true, p.persistLocked()
}

// RemoveTrack removes trackID from the playlist. It reports whether the
// playlist changed.
func (p *Playlists) RemoveTrack(id, trackID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pl := p.findLocked(id)
	if pl == nil {
		return false, errors.Wrapf(ErrPlaylistNotFound, "id %s", id)
	}
	if !pl.RemoveTrack(trackID, p.now()) {
		return false, nil
	}
	return true, p.persistLocked()
}

func (p *Playlists) replace(items []playlist.Playlist) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = make([]*playlist.Playlist, len(items))
	for i := range items {
		pl := clonePlaylist(&items[i])
		p.items[i] = &pl
	}
	return p.persistLocked()
}

func (p *Playlists) findLocked(id string) *playlist.Playlist {
	for _, pl := range p.items {
		if pl.ID == id {
			return pl
		}
	}
	return nil
}

func (p *Playlists) persistLocked() error {
	return persist(p.store, storage.NamespacePlaylists, p.items)
}

func clonePlaylist(pl *playlist.Playlist) playlist.Playlist {
	c := *pl
	c.Tracks = append(make([]track.Track, 0, len(pl.Tracks)), pl.Tracks...)
	return c
}
