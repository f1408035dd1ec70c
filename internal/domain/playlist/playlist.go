// Package playlist provides the Playlist domain entity.
package playlist

import (
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/osa030/tunedeck/internal/domain/track"
)

// IDPrefix prefixes every generated playlist ID.
const IDPrefix = "playlist-"

var ErrEmptyName = errors.New("playlist name is required")

// Playlist represents a user playlist.
type Playlist struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	CoverImage  string        `json:"coverImage"`
	Tracks      []track.Track `json:"tracks"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// New creates an empty playlist with a generated ID and a placeholder cover.
func New(name, description string, now time.Time) (*Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Playlist{
		ID:          IDPrefix + uuid.New().String(),
		Name:        name,
		Description: description,
		CoverImage:  CoverImageURL(name),
		Tracks:      make([]track.Track, 0),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CoverImageURL returns the placeholder cover for a playlist name.
func CoverImageURL(name string) string {
	text := url.QueryEscape(strings.Join(strings.Fields(name), " "))
	return "https://placehold.co/300x300?text=" + text + "+Playlist+Cover"
}

// AddTrack appends t unless a track with the same ID is already present.
// Returns true if the playlist changed.
func (p *Playlist) AddTrack(t track.Track, now time.Time) bool {
	if track.ContainsID(p.Tracks, t.ID) {
		return false
	}
	p.Tracks = append(p.Tracks, t)
	p.UpdatedAt = now
	return true
}

// RemoveTrack removes every track with the given ID.
// Returns true if the playlist changed.
func (p *Playlist) RemoveTrack(trackID string, now time.Time) bool {
	if !track.ContainsID(p.Tracks, trackID) {
		return false
	}
	p.Tracks = track.RemoveID(p.Tracks, trackID)
	p.UpdatedAt = now
	return true
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	ids := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// TotalDuration returns the total nominal duration of all tracks.
func (p *Playlist) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range p.Tracks {
		total += t.Duration
	}
	return total
}
