package playback

import (
	"encoding/json"
	"time"

	"github.com/osa030/tunedeck/internal/app/queue"
)

// Status is a point-in-time view of the player.
type Status struct {
	State           State
	Position        time.Duration
	Duration        time.Duration
	Volume          float64
	Muted           bool
	EffectiveVolume float64
	Error           string
	Queue           queue.Snapshot
}

// IsPlaying reports whether the player is playing.
func (s Status) IsPlaying() bool {
	return s.State == StatePlaying
}

// ProgressPercent returns the position as a percentage of the duration,
// capped at 100. An unknown duration yields 0.
func (s Status) ProgressPercent() float64 {
	if s.Duration <= 0 {
		return 0
	}
	p := float64(s.Position) / float64(s.Duration) * 100
	if p > 100 {
		return 100
	}
	return p
}

type wireStatus struct {
	State           State          `json:"state"`
	IsPlaying       bool           `json:"isPlaying"`
	Position        float64        `json:"position"`
	Duration        float64        `json:"duration"`
	Progress        float64        `json:"progress"`
	Volume          float64        `json:"volume"`
	Muted           bool           `json:"muted"`
	EffectiveVolume float64        `json:"effectiveVolume"`
	Error           string         `json:"error,omitempty"`
	Queue           queue.Snapshot `json:"queue"`
}

// MarshalJSON encodes positions as seconds.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireStatus{
		State:           s.State,
		IsPlaying:       s.IsPlaying(),
		Position:        s.Position.Seconds(),
		Duration:        s.Duration.Seconds(),
		Progress:        s.ProgressPercent(),
		Volume:          s.Volume,
		Muted:           s.Muted,
		EffectiveVolume: s.EffectiveVolume,
		Error:           s.Error,
		Queue:           s.Queue,
	})
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (s *Status) UnmarshalJSON(data []byte) error {
	var w wireStatus
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Status{
		State:           w.State,
		Position:        secondsToDuration(w.Position),
		Duration:        secondsToDuration(w.Duration),
		Volume:          w.Volume,
		Muted:           w.Muted,
		EffectiveVolume: w.EffectiveVolume,
		Error:           w.Error,
		Queue:           w.Queue,
	}
	return nil
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}

// PlayerSettings are the persisted transport and traversal preferences.
type PlayerSettings struct {
	Volume  float64
	Muted   bool
	Shuffle bool
	Repeat  queue.RepeatMode
}
