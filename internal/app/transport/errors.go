package transport

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	ErrNoSource        = errors.New("no source loaded")
	ErrAutoplayBlocked = errors.New("playback was blocked by the autoplay policy")
	ErrBrokenSource    = errors.New("media source is not playable")
	ErrUnresolvable    = errors.New("no resolver accepted the source")
	ErrClosed          = errors.New("transport is closed")
)

// PlaybackError reports that the transport refused to load or play a track.
type PlaybackError struct {
	TrackID string
	Err     error
}

// Error implements error.
func (e *PlaybackError) Error() string {
	if e.TrackID == "" {
		return fmt.Sprintf("playback failed: %v", e.Err)
	}
	return fmt.Sprintf("playback failed for %s: %v", e.TrackID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// IsPlaybackError reports whether err carries a *PlaybackError.
func IsPlaybackError(err error) bool {
	var pe *PlaybackError
	return errors.As(err, &pe)
}
