package queue

import (
	"time"

	"github.com/osa030/tunedeck/internal/domain/track"
)

// Snapshot is a point-in-time copy of a Store.
type Snapshot struct {
	Tracks       []track.Track `json:"tracks"`
	CurrentIndex int           `json:"currentIndex"`
	Current      *track.Track  `json:"currentTrack"`
	Upcoming     []track.Track `json:"upcoming"`
	Shuffle      bool          `json:"shuffle"`
	Repeat       RepeatMode    `json:"repeat"`
}

// Len returns the number of queued tracks.
func (s Snapshot) Len() int {
	return len(s.Tracks)
}

// IsEmpty reports whether the queue has no tracks.
func (s Snapshot) IsEmpty() bool {
	return len(s.Tracks) == 0
}

// TotalDuration returns the nominal duration of the whole queue.
func (s Snapshot) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range s.Tracks {
		total += t.Duration
	}
	return total
}
