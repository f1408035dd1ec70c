// Package playback binds the play queue to the audio transport.
package playback

import "github.com/cockroachdb/errors"

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // No current track
	StatePaused               // Current track loaded or selected, not playing
	StatePlaying              // Current track is playing
	StateError                // Transport rejected the current track
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateIdle, StatePaused, StatePlaying, StateError} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return errors.Newf("unknown playback state %q", string(text))
}
