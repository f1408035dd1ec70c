// Package queue provides the play queue state machine.
//
// Store transitions are pure and synchronous. A Store is not safe for
// concurrent use; its owner serializes access.
package queue

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"

	"github.com/osa030/tunedeck/internal/domain/track"
)

// Store holds an ordered play queue, the active index and the traversal flags.
type Store struct {
	tracks []track.Track
	index  int // -1 when tracks is empty

	// detached is a current track set directly that is not part of tracks.
	detached *track.Track

	repeat  RepeatMode
	shuffle bool
	order   []int // traversal permutation of positions, only while shuffling
	pos     int   // position of index within order

	rng *rand.Rand
}

// Option configures a Store.
type Option func(*Store)

// WithRand sets the random source used for shuffled traversal.
func WithRand(rng *rand.Rand) Option {
	return func(s *Store) {
		s.rng = rng
	}
}

// New creates an empty queue.
func New(opts ...Option) *Store {
	s := &Store{
		tracks: make([]track.Track, 0),
		index:  -1,
		repeat: RepeatNone,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(newSeed()))
	}
	return s
}

// newSeed returns a crypto seed, falling back to the clock.
func newSeed() int64 {
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err == nil {
		return int64(binary.LittleEndian.Uint64(buf[:]))
	}
	return time.Now().UnixNano()
}

// SetQueue replaces the queue. The first track becomes current.
func (s *Store) SetQueue(tracks []track.Track) {
	s.tracks = append(make([]track.Track, 0, len(tracks)), tracks...)
	s.detached = nil
	if len(s.tracks) == 0 {
		s.index = -1
	} else {
		s.index = 0
	}
	s.rebuildOrder()
}

// SetCurrentTrack makes t the current track without altering the queue.
// If a track with the same ID is queued, the index moves to its first
// occurrence. Otherwise t is held as a detached current track and the
// index is left where it was.
func (s *Store) SetCurrentTrack(t track.Track) {
	if i := track.IndexOf(s.tracks, t.ID); i >= 0 {
		s.index = i
		s.detached = nil
		s.rebuildOrder()
		return
	}
	detached := t
	s.detached = &detached
}

// Select makes the queued track at position i current. It returns false,
// without changes, when i is out of range.
func (s *Store) Select(i int) bool {
	if i < 0 || i >= len(s.tracks) {
		return false
	}
	s.index = i
	s.detached = nil
	s.rebuildOrder()
	return true
}

// Add appends tracks to the end of the queue. The index is unchanged unless
// the queue was empty, in which case the first added track becomes current.
func (s *Store) Add(tracks ...track.Track) {
	if len(tracks) == 0 {
		return
	}
	start := len(s.tracks)
	s.tracks = append(s.tracks, tracks...)
	if s.index < 0 {
		s.index = 0
		s.rebuildOrder()
		return
	}
	if s.shuffle {
		added := make([]int, 0, len(tracks))
		for i := start; i < len(s.tracks); i++ {
			added = append(added, i)
		}
		s.rng.Shuffle(len(added), func(i, j int) { added[i], added[j] = added[j], added[i] })
		s.order = append(s.order, added...)
	}
}

// Remove removes the track at position i. Removing at or before the current
// index shifts the index back by one so the same track stays current where
// possible. Returns false, without changes, when i is out of range.
func (s *Store) Remove(i int) bool {
	if i < 0 || i >= len(s.tracks) {
		return false
	}
	s.tracks = append(s.tracks[:i], s.tracks[i+1:]...)

	if i <= s.index {
		s.index--
	}
	switch {
	case len(s.tracks) == 0:
		s.index = -1
	case s.index < 0:
		s.index = 0
	}

	if s.shuffle {
		order := make([]int, 0, len(s.order))
		for _, p := range s.order {
			switch {
			case p == i:
				continue
			case p > i:
				order = append(order, p-1)
			default:
				order = append(order, p)
			}
		}
		s.order = order
		s.pos = s.orderPos(s.index)
	}
	return true
}

// Clear empties the queue.
func (s *Store) Clear() {
	s.tracks = make([]track.Track, 0)
	s.index = -1
	s.detached = nil
	s.order = nil
	s.pos = 0
}

// Advance moves to the next track. At the end of the queue it wraps when
// repeating the playlist and otherwise stays on the last track. It returns
// the resulting current track and whether the position moved (a wrap counts
// as a move, a clamp does not). Advancing an empty queue is a no-op.
func (s *Store) Advance() (track.Track, bool) {
	return s.step(1)
}

// Retreat moves to the previous track, wrapping to the last track when
// repeating the playlist and otherwise staying on the first.
func (s *Store) Retreat() (track.Track, bool) {
	return s.step(-1)
}

func (s *Store) step(delta int) (track.Track, bool) {
	if len(s.tracks) == 0 {
		return track.Track{}, false
	}
	wasDetached := s.detached != nil
	s.detached = nil

	if s.shuffle {
		next, moved := s.nextStep(s.pos, delta, len(s.order))
		s.pos = next
		s.index = s.order[next]
		return s.tracks[s.index], moved || wasDetached
	}

	next, moved := s.nextStep(s.index, delta, len(s.tracks))
	s.index = next
	return s.tracks[s.index], moved || wasDetached
}

// nextStep resolves cur+delta against [0, n) using the repeat policy.
func (s *Store) nextStep(cur, delta, n int) (int, bool) {
	next := cur + delta
	if next >= 0 && next < n {
		return next, true
	}
	if s.repeat == RepeatPlaylist {
		if next < 0 {
			return n - 1, true
		}
		return 0, true
	}
	if next < 0 {
		return 0, cur != 0
	}
	return cur, false
}

// ToggleShuffle flips the shuffle flag and returns the new value.
func (s *Store) ToggleShuffle() bool {
	s.SetShuffle(!s.shuffle)
	return s.shuffle
}

// SetShuffle enables or disables shuffled traversal. Enabling starts a new
// random cycle that begins at the current track.
func (s *Store) SetShuffle(on bool) {
	if s.shuffle == on {
		return
	}
	s.shuffle = on
	s.rebuildOrder()
}

// CycleRepeat advances the repeat mode and returns the new value.
func (s *Store) CycleRepeat() RepeatMode {
	s.repeat = s.repeat.Next()
	return s.repeat
}

// SetRepeat sets the repeat mode.
func (s *Store) SetRepeat(m RepeatMode) {
	s.repeat = m
}

// Current returns the current track, if any.
func (s *Store) Current() (track.Track, bool) {
	if s.detached != nil {
		return *s.detached, true
	}
	if s.index < 0 {
		return track.Track{}, false
	}
	return s.tracks[s.index], true
}

// Index returns the current index, -1 when the queue is empty.
func (s *Store) Index() int {
	return s.index
}

// Len returns the number of queued tracks.
func (s *Store) Len() int {
	return len(s.tracks)
}

// Repeat returns the repeat mode.
func (s *Store) Repeat() RepeatMode {
	return s.repeat
}

// Shuffle returns the shuffle flag.
func (s *Store) Shuffle() bool {
	return s.shuffle
}

// Tracks returns a copy of the queued tracks in insertion order.
func (s *Store) Tracks() []track.Track {
	result := make([]track.Track, len(s.tracks))
	copy(result, s.tracks)
	return result
}

// Upcoming returns the tracks that follow the current one in traversal
// order, without wrapping.
func (s *Store) Upcoming() []track.Track {
	if s.index < 0 {
		return nil
	}
	var result []track.Track
	if s.shuffle {
		for _, p := range s.order[s.pos+1:] {
			result = append(result, s.tracks[p])
		}
		return result
	}
	return append(result, s.tracks[s.index+1:]...)
}

// Snapshot returns an immutable copy of the queue state.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Tracks:       s.Tracks(),
		CurrentIndex: s.index,
		Upcoming:     s.Upcoming(),
		Shuffle:      s.shuffle,
		Repeat:       s.repeat,
	}
	if cur, ok := s.Current(); ok {
		snap.Current = &cur
	}
	return snap
}

// rebuildOrder regenerates the shuffle permutation with the current
// position first.
func (s *Store) rebuildOrder() {
	s.pos = 0
	if !s.shuffle || len(s.tracks) == 0 {
		s.order = nil
		return
	}
	rest := make([]int, 0, len(s.tracks)-1)
	for i := range s.tracks {
		if i != s.index {
			rest = append(rest, i)
		}
	}
	s.rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	s.order = append([]int{s.index}, rest...)
}

func (s *Store) orderPos(index int) int {
	for i, p := range s.order {
		if p == index {
			return i
		}
	}
	return 0
}
