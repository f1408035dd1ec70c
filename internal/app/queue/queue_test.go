package queue

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/tunedeck/internal/domain/track"
)

func makeTracks(n int) []track.Track {
	tracks := make([]track.Track, n)
	for i := range tracks {
		tracks[i] = track.Track{ID: fmt.Sprintf("t%d", i+1), Title: fmt.Sprintf("Song %d", i+1)}
	}
	return tracks
}

func currentID(t *testing.T, s *Store) string {
	t.Helper()
	cur, ok := s.Current()
	require.True(t, ok, "expected a current track")
	return cur.ID
}

// assertIndexInvariant checks that the index is -1 exactly when the queue is empty.
func assertIndexInvariant(t *testing.T, s *Store) {
	t.Helper()
	if s.Len() == 0 {
		assert.Equal(t, -1, s.Index())
		return
	}
	assert.GreaterOrEqual(t, s.Index(), 0)
	assert.Less(t, s.Index(), s.Len())
}

func TestNew_Empty(t *testing.T) {
	s := New()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, -1, s.Index())
	assert.Equal(t, RepeatNone, s.Repeat())
	assert.False(t, s.Shuffle())
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSetQueue(t *testing.T) {
	s := New()
	s.SetQueue(makeTracks(3))

	assert.Equal(t, 0, s.Index())
	assert.Equal(t, "t1", currentID(t, s))

	s.SetQueue(nil)
	assert.Equal(t, -1, s.Index())
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSetQueue_CopiesInput(t *testing.T) {
	tracks := makeTracks(2)
	s := New()
	s.SetQueue(tracks)

	tracks[0].ID = "mutated"
	assert.Equal(t, "t1", currentID(t, s))
}

func TestAdvance_RepeatPlaylistWraps(t *testing.T) {
	s := New()
	s.SetQueue(makeTracks(3))
	s.SetRepeat(RepeatPlaylist)

	var visited []string
	for i := 0; i < 3; i++ {
		cur, moved := s.Advance()
		assert.True(t, moved)
		visited = append(visited, cur.ID)
	}

	assert.Equal(t, []string{"t2", "t3", "t1"}, visited)
	assert.Equal(t, 0, s.Index())
}

func TestAdvance_RepeatNoneClampsAtLast(t *testing.T) {
	s := New()
	s.SetQueue(makeTracks(3))

	_, moved := s.Advance()
	assert.True(t, moved)
	_, moved = s.Advance()
	assert.True(t, moved)
	cur, moved := s.Advance()
	assert.False(t, moved)
	assert.Equal(t, "t3", cur.ID)
	assert.Equal(t, 2, s.Index())
}

func TestAdvance_RepeatTrackClampsLikeNone(t *testing.T) {
	s := New()
	s.SetQueue(makeTracks(2))
	s.SetRepeat(RepeatTrack)

	s.Advance()
	_, moved := s.Advance()
	assert.False(t, moved)
	assert.Equal(t, 1, s.Index())
}

func TestAdvance_NeverOvershoots(t *testing.T) {
	s := New()
	s.SetQueue(makeTracks(2))

	s.Advance()
	s.Advance()

	assert.Equal(t, 1, s.Index())
	assertIndexInvariant(t, s)
}

func TestAdvance_EmptyQueue(t *testing.T) {
	s := New()

	cur, moved := s.Advance()
	assert.False(t, moved)
	assert.Empty(t, cur.ID)
	assert.Equal(t, -1, s.Index())

	_, moved = s.Retreat()
	assert.False(t, moved)
}

func TestRetreat(t *testing.T) {
	tests := []struct {
		name      string
		repeat    RepeatMode
		wantIndex int
		wantMoved bool
	}{
		{name: "none stays at first", repeat: RepeatNone, wantIndex: 0, wantMoved: false},
		{name: "track stays at first", repeat: RepeatTrack, wantIndex: 0, wantMoved: false},
		{name: "playlist wraps to last", repeat: RepeatPlaylist, wantIndex: 3, wantMoved: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.SetQueue(makeTracks(4))
			s.SetRepeat(tt.repeat)

			_, moved := s.Retreat()
			assert.Equal(t, tt.wantMoved, moved)
			assert.Equal(t, tt.wantIndex, s.Index())
		})
	}
}

func TestRetreat_FromMiddle(t *testing.T) {
	s := New()
	s.SetQueue(makeTracks(3))
	s.Advance()
	s.Advance()

	cur, moved := s.Retreat()
	assert.True(t, moved)
	assert.Equal(t, "t2", cur.ID)
}

func TestAdd(t *testing.T) {
	s := New()
	s.Add()
	assert.Equal(t, -1, s.Index())

	s.Add(makeTracks(2)...)
	assert.Equal(t, 0, s.Index(), "first add to an empty queue selects the first track")

	s.Advance()
	s.Add(track.Track{ID: "t9"})
	assert.Equal(t, 1, s.Index())
	assert.Equal(t, 3, s.Len())
}

func TestAdd_AllowsDuplicates(t *testing.T) {
	s := New()
	s.SetQueue(makeTracks(1))
	s.Add(track.Track{ID: "t1"})

	assert.Equal(t, 2, s.Len())
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name      string
		start     int // index to advance to before removal
		remove    int
		wantOK    bool
		wantIndex int
		wantID    string
	}{
		{name: "after current", start: 1, remove: 2, wantOK: true, wantIndex: 1, wantID: "t2"},
		{name: "before current keeps same track", start: 2, remove: 0, wantOK: true, wantIndex: 1, wantID: "t3"},
		{name: "current track moves back", start: 2, remove: 2, wantOK: true, wantIndex: 1, wantID: "t2"},
		{name: "first while current clamps to zero", start: 0, remove: 0, wantOK: true, wantIndex: 0, wantID: "t2"},
		{name: "negative index", start: 1, remove: -1, wantOK: false, wantIndex: 1, wantID: "t2"},
		{name: "index past end", start: 1, remove: 4, wantOK: false, wantIndex: 1, wantID: "t2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.SetQueue(makeTracks(4))
			for i := 0; i < tt.start; i++ {
				s.Advance()
			}

			ok := s.Remove(tt.remove)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantIndex, s.Index())
			assert.Equal(t, tt.wantID, currentID(t, s))
			assertIndexInvariant(t, s)
		})
	}
}

func TestRemove_LastTrackEmptiesQueue(t *testing.T) {
	s := New()
	s.SetQueue(makeTracks(1))

	assert.True(t, s.Remove(0))
	assert.Equal(t, -1, s.Index())
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	s := New()
	s.SetQueue(makeTracks(3))
	s.SetCurrentTrack(track.Track{ID: "elsewhere"})

	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, -1, s.Index())
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSetCurrentTrack_Queued(t *testing.T) {
	s := New()
	tracks := makeTracks(3)
	s.SetQueue(tracks)

	s.SetCurrentTrack(tracks[2])

	assert.Equal(t, 2, s.Index())
	assert.Equal(t, 3, s.Len(), "queue is not altered")
	_, moved := s.Advance()
	assert.False(t, moved, "already at the last track")
}

func TestSetCurrentTrack_Detached(t *testing.T) {
	s := New()
	s.SetQueue(makeTracks(2))

	s.SetCurrentTrack(track.Track{ID: "outside"})

	assert.Equal(t, "outside", currentID(t, s))
	assert.Equal(t, 0, s.Index())
	assert.Equal(t, 2, s.Len())

	// Advancing leaves the detached track and follows the queue
	cur, moved := s.Advance()
	assert.True(t, moved)
	assert.Equal(t, "t2", cur.ID)
}

func TestSelect(t *testing.T) {
	s := New()
	s.SetQueue([]track.Track{{ID: "a"}, {ID: "b"}, {ID: "a"}})
	s.SetCurrentTrack(track.Track{ID: "outside"})

	assert.True(t, s.Select(2))
	assert.Equal(t, 2, s.Index(), "duplicates are selected by position")
	assert.Equal(t, "a", currentID(t, s))

	assert.False(t, s.Select(3))
	assert.False(t, s.Select(-1))
	assert.Equal(t, 2, s.Index())
}

func TestCycleRepeat(t *testing.T) {
	s := New()

	assert.Equal(t, RepeatPlaylist, s.CycleRepeat())
	assert.Equal(t, RepeatTrack, s.CycleRepeat())
	assert.Equal(t, RepeatNone, s.CycleRepeat())
}

func TestIndexInvariant_RandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := New(WithRand(rand.New(rand.NewSource(7))))

	for i := 0; i < 2000; i++ {
		switch rng.Intn(8) {
		case 0:
			s.SetQueue(makeTracks(rng.Intn(5)))
		case 1:
			s.Add(makeTracks(rng.Intn(3))...)
		case 2:
			s.Remove(rng.Intn(6) - 1)
		case 3:
			s.Advance()
		case 4:
			s.Retreat()
		case 5:
			s.ToggleShuffle()
		case 6:
			s.CycleRepeat()
		case 7:
			if rng.Intn(10) == 0 {
				s.Clear()
			}
		}
		assertIndexInvariant(t, s)
		if s.Shuffle() && s.Len() > 0 {
			require.Len(t, s.order, s.Len())
			require.Equal(t, s.Index(), s.order[s.pos])
		}
	}
}

func TestSnapshot(t *testing.T) {
	s := New()
	s.SetQueue(makeTracks(3))
	s.Advance()
	s.SetRepeat(RepeatPlaylist)

	snap := s.Snapshot()

	assert.Equal(t, 1, snap.CurrentIndex)
	require.NotNil(t, snap.Current)
	assert.Equal(t, "t2", snap.Current.ID)
	assert.Len(t, snap.Upcoming, 1)
	assert.Equal(t, "t3", snap.Upcoming[0].ID)
	assert.Equal(t, RepeatPlaylist, snap.Repeat)
	assert.False(t, snap.IsEmpty())

	// The snapshot does not alias the store
	snap.Tracks[0].ID = "changed"
	assert.Equal(t, "t1", s.Tracks()[0].ID)
}

func TestParseRepeatMode(t *testing.T) {
	for _, m := range []RepeatMode{RepeatNone, RepeatPlaylist, RepeatTrack} {
		parsed, err := ParseRepeatMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}

	_, err := ParseRepeatMode("forever")
	assert.Error(t, err)
}
