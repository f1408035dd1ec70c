package queue

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// RepeatMode controls what happens at the queue boundaries.
type RepeatMode int

const (
	RepeatNone     RepeatMode = iota // Stop at the last track
	RepeatPlaylist                   // Wrap around the whole queue
	RepeatTrack                      // Loop the current track on end
)

// String returns the string representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatNone:
		return "none"
	case RepeatPlaylist:
		return "playlist"
	case RepeatTrack:
		return "track"
	default:
		return "unknown"
	}
}

// Next returns the mode that follows m in the cycle none -> playlist -> track -> none.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatPlaylist
	case RepeatPlaylist:
		return RepeatTrack
	default:
		return RepeatNone
	}
}

// ParseRepeatMode parses the string form of a repeat mode.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return RepeatNone, nil
	case "playlist":
		return RepeatPlaylist, nil
	case "track":
		return RepeatTrack, nil
	default:
		return RepeatNone, errors.Newf("unknown repeat mode: %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m RepeatMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *RepeatMode) UnmarshalText(text []byte) error {
	parsed, err := ParseRepeatMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
