// Package transport provides the audio transport contract and its events.
package transport

import (
	"context"
	"time"

	"github.com/osa030/tunedeck/internal/domain/track"
)

// EventType represents a transport event type.
type EventType int

const (
	EventStarted       EventType = iota // Playback started or resumed
	EventPaused                         // Playback paused
	EventTimeUpdated                    // Position changed
	EventDurationKnown                  // Live duration became known
	EventEnded                          // Media reached its end
	EventError                          // Media failed
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventPaused:
		return "paused"
	case EventTimeUpdated:
		return "time_updated"
	case EventDurationKnown:
		return "duration_known"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is emitted by an Adapter. Generation identifies the Load call the
// event belongs to, so consumers can drop events from a previous track.
type Event struct {
	Type       EventType
	Generation uint64
	TrackID    string
	Position   time.Duration
	Duration   time.Duration
	Message    string
}

// Adapter wraps a single playable media resource at a time.
type Adapter interface {
	// Load binds the adapter to the media for t, resets the position and
	// clears any error. It returns the generation stamped on later events.
	Load(ctx context.Context, t track.Track) (uint64, error)
	// Play begins or resumes playback. Failures are *PlaybackError.
	Play() error
	Pause()
	// Stop pauses and resets the position to zero.
	Stop()
	// Seek moves to seconds. Non-finite or out-of-range values are ignored
	// and reported as false.
	Seek(seconds float64) bool
	// SetVolume clamps v to [0,1], stores it and returns the stored value.
	SetVolume(v float64) float64
	SetMuted(muted bool)
	Volume() float64
	Muted() bool
	// EffectiveVolume is 0 while muted, the stored volume otherwise.
	EffectiveVolume() float64
	Position() time.Duration
	Duration() time.Duration
	IsPlaying() bool
	// Subscribe returns an event channel and a function that cancels it.
	Subscribe() (<-chan Event, func())
	Close()
}

// ClampVolume limits v to [0,1]. NaN maps to 0.
func ClampVolume(v float64) float64 {
	switch {
	case v != v:
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
