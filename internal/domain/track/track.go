// Package track provides the Track domain entity.
package track

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

var (
	ErrEmptyID          = errors.New("track id is empty")
	ErrNegativeDuration = errors.New("track duration is negative")
)

// Track describes a playable item.
// Tracks are value objects: two tracks with the same ID are the same track.
type Track struct {
	ID           string        // Globally unique, stable across sessions
	Title        string        // Display title
	Artist       string        // Display artist
	Duration     time.Duration // Nominal duration (the live transport duration may differ)
	ThumbnailURL string        // Thumbnail image URL
	SourceID     string        // External reference used to resolve playable media
	AddedAt      time.Time     // Informational
}

// wireTrack is the JSON form of Track. Duration travels as seconds.
type wireTrack struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist"`
	Duration     float64   `json:"duration"`
	ThumbnailURL string    `json:"thumbnail"`
	SourceID     string    `json:"sourceId"`
	AddedAt      time.Time `json:"addedAt"`
}

// MarshalJSON implements json.Marshaler.
func (t Track) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireTrack{
		ID:           t.ID,
		Title:        t.Title,
		Artist:       t.Artist,
		Duration:     t.Duration.Seconds(),
		ThumbnailURL: t.ThumbnailURL,
		SourceID:     t.SourceID,
		AddedAt:      t.AddedAt,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Track) UnmarshalJSON(data []byte) error {
	var w wireTrack
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = Track{
		ID:           w.ID,
		Title:        w.Title,
		Artist:       w.Artist,
		Duration:     time.Duration(w.Duration * float64(time.Second)),
		ThumbnailURL: w.ThumbnailURL,
		SourceID:     w.SourceID,
		AddedAt:      w.AddedAt,
	}
	return nil
}

// Validate checks the descriptor invariants.
func (t Track) Validate() error {
	if t.ID == "" {
		return ErrEmptyID
	}
	if t.Duration < 0 {
		return errors.Wrapf(ErrNegativeDuration, "track %s", t.ID)
	}
	return nil
}

// SameAs reports whether both descriptors identify the same track.
func (t Track) SameAs(other Track) bool {
	return t.ID == other.ID
}

// IndexOf returns the position of the first track with the given ID, or -1.
func IndexOf(tracks []Track, id string) int {
	for i, t := range tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// ContainsID reports whether a track with the given ID is in tracks.
func ContainsID(tracks []Track, id string) bool {
	return IndexOf(tracks, id) >= 0
}

// RemoveID returns a copy of tracks without any track carrying id.
func RemoveID(tracks []Track, id string) []Track {
	result := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if t.ID != id {
			result = append(result, t)
		}
	}
	return result
}

// FormatDuration renders d as M:SS, or H:MM:SS when at least one hour.
// Negative durations render as 0:00.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "0:00"
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
