package transport

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/tunedeck/internal/domain/track"
)

type fakeNow struct {
	t time.Time
}

func (f *fakeNow) Now() time.Time { return f.t }

func (f *fakeNow) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestClock(t *testing.T, config ClockConfig) (*Clock, *fakeNow) {
	t.Helper()
	now := &fakeNow{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	// The ticker never fires on its own; tests drive tick directly
	config.TickInterval = time.Hour
	c := NewClock(config, nil, WithNow(now.Now))
	t.Cleanup(c.Close)
	return c, now
}

func drain(ch <-chan Event) []Event {
	var events []Event
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, e)
		default:
			return events
		}
	}
}

func types(events []Event) []EventType {
	result := make([]EventType, len(events))
	for i, e := range events {
		result[i] = e.Type
	}
	return result
}

var song = track.Track{ID: "youtube-abc", SourceID: "abc", Duration: 3 * time.Minute}

func TestClock_PlayWithoutSource(t *testing.T) {
	c, _ := newTestClock(t, ClockConfig{})

	err := c.Play()

	require.Error(t, err)
	assert.True(t, IsPlaybackError(err))
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestClock_LoadEmitsDurationAndGeneration(t *testing.T) {
	c, _ := newTestClock(t, ClockConfig{})
	ch, cancel := c.Subscribe()
	defer cancel()

	gen1, err := c.Load(context.Background(), song)
	require.NoError(t, err)
	gen2, err := c.Load(context.Background(), song)
	require.NoError(t, err)

	assert.Greater(t, gen2, gen1)
	events := drain(ch)
	require.Len(t, events, 2)
	assert.Equal(t, EventDurationKnown, events[0].Type)
	assert.Equal(t, gen1, events[0].Generation)
	assert.Equal(t, gen2, events[1].Generation)
	assert.Equal(t, 3*time.Minute, events[1].Duration)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", c.StreamURL())
}

func TestClock_LoadUnresolvable(t *testing.T) {
	c, _ := newTestClock(t, ClockConfig{})
	ch, cancel := c.Subscribe()
	defer cancel()

	_, err := c.Load(context.Background(), track.Track{ID: "x"})

	assert.ErrorIs(t, err, ErrUnresolvable)
	assert.Equal(t, []EventType{EventError}, types(drain(ch)))
	assert.ErrorIs(t, c.Play(), ErrNoSource)
}

func TestClock_PositionAdvancesWhilePlaying(t *testing.T) {
	c, now := newTestClock(t, ClockConfig{})
	gen, err := c.Load(context.Background(), song)
	require.NoError(t, err)
	require.NoError(t, c.Play())

	now.Advance(10 * time.Second)
	assert.Equal(t, 10*time.Second, c.Position())

	c.Pause()
	now.Advance(time.Minute)
	assert.Equal(t, 10*time.Second, c.Position(), "paused position is frozen")
	assert.False(t, c.tick(gen), "ticks stop while paused")
}

func TestClock_TickEmitsEnded(t *testing.T) {
	c, now := newTestClock(t, ClockConfig{})
	ch, cancel := c.Subscribe()
	defer cancel()
	gen, err := c.Load(context.Background(), song)
	require.NoError(t, err)
	require.NoError(t, c.Play())
	drain(ch)

	now.Advance(time.Minute)
	assert.True(t, c.tick(gen))
	assert.Equal(t, []EventType{EventTimeUpdated}, types(drain(ch)))

	now.Advance(5 * time.Minute)
	assert.False(t, c.tick(gen))

	events := drain(ch)
	assert.Equal(t, []EventType{EventTimeUpdated, EventEnded}, types(events))
	assert.Equal(t, 3*time.Minute, events[1].Position)
	assert.False(t, c.IsPlaying())
	assert.Equal(t, 3*time.Minute, c.Position())
}

func TestClock_PlayAfterEndRestarts(t *testing.T) {
	c, now := newTestClock(t, ClockConfig{})
	gen, _ := c.Load(context.Background(), song)
	require.NoError(t, c.Play())
	now.Advance(4 * time.Minute)
	c.tick(gen)

	require.NoError(t, c.Play())
	assert.Equal(t, time.Duration(0), c.Position())
}

func TestClock_StaleGenerationTickIgnored(t *testing.T) {
	c, _ := newTestClock(t, ClockConfig{})
	old, _ := c.Load(context.Background(), song)
	require.NoError(t, c.Play())
	_, _ = c.Load(context.Background(), song)
	require.NoError(t, c.Play())

	assert.False(t, c.tick(old))
	assert.True(t, c.IsPlaying())
}

func TestClock_RejectAutoplay(t *testing.T) {
	c, _ := newTestClock(t, ClockConfig{RejectAutoplay: true})
	_, err := c.Load(context.Background(), song)
	require.NoError(t, err)

	err = c.Play()

	assert.ErrorIs(t, err, ErrAutoplayBlocked)
	assert.False(t, c.IsPlaying())
}

func TestClock_ZeroDurationIsBroken(t *testing.T) {
	c, _ := newTestClock(t, ClockConfig{})
	_, err := c.Load(context.Background(), track.Track{ID: "x", SourceID: "x"})
	require.NoError(t, err)

	assert.ErrorIs(t, c.Play(), ErrBrokenSource)
}

func TestClock_Seek(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    bool
	}{
		{name: "start", seconds: 0, want: true},
		{name: "middle", seconds: 90.5, want: true},
		{name: "end", seconds: 180, want: true},
		{name: "past end", seconds: 181, want: false},
		{name: "negative", seconds: -1, want: false},
		{name: "nan", seconds: math.NaN(), want: false},
		{name: "inf", seconds: math.Inf(1), want: false},
		{name: "overflows duration", seconds: 1e19, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClock(t, ClockConfig{})
			_, err := c.Load(context.Background(), song)
			require.NoError(t, err)

			assert.Equal(t, tt.want, c.Seek(tt.seconds))
			if tt.want {
				assert.Equal(t, time.Duration(tt.seconds*float64(time.Second)), c.Position())
			} else {
				assert.Equal(t, time.Duration(0), c.Position())
			}
		})
	}
}

func TestClock_SeekWithoutSource(t *testing.T) {
	c, _ := newTestClock(t, ClockConfig{})
	assert.False(t, c.Seek(1))
}

func TestClock_Stop(t *testing.T) {
	c, now := newTestClock(t, ClockConfig{})
	_, _ = c.Load(context.Background(), song)
	require.NoError(t, c.Play())
	now.Advance(20 * time.Second)

	c.Stop()

	assert.False(t, c.IsPlaying())
	assert.Equal(t, time.Duration(0), c.Position())
}

func TestClock_VolumeAndMute(t *testing.T) {
	c, _ := newTestClock(t, ClockConfig{Volume: 0.7})

	assert.Equal(t, 0.7, c.Volume())
	assert.Equal(t, 1.0, c.SetVolume(1.5))
	assert.Equal(t, 0.0, c.SetVolume(-2))
	assert.Equal(t, 0.4, c.SetVolume(0.4))
	assert.Equal(t, 0.4, c.SetVolume(math.NaN()), "NaN keeps the stored volume")

	c.SetMuted(true)
	assert.Equal(t, 0.0, c.EffectiveVolume())
	assert.Equal(t, 0.4, c.Volume(), "mute never touches stored volume")

	c.SetMuted(false)
	assert.Equal(t, 0.4, c.EffectiveVolume())
}

func TestClock_UnsubscribeAndClose(t *testing.T) {
	c, _ := newTestClock(t, ClockConfig{})
	ch1, cancel1 := c.Subscribe()
	ch2, _ := c.Subscribe()

	cancel1()
	cancel1()
	_, ok := <-ch1
	assert.False(t, ok)

	c.Close()
	_, ok = <-ch2
	assert.False(t, ok)

	_, err := c.Load(context.Background(), song)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClock_TickerDrivesPlayback(t *testing.T) {
	c := NewClock(ClockConfig{TickInterval: 5 * time.Millisecond}, nil)
	defer c.Close()
	ch, cancel := c.Subscribe()
	defer cancel()

	_, err := c.Load(context.Background(), track.Track{ID: "short", SourceID: "s", Duration: 30 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, c.Play())

	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-ch:
			if e.Type == EventEnded {
				assert.Equal(t, "short", e.TrackID)
				return
			}
		case <-deadline:
			t.Fatal("timeout waiting for ended event")
		}
	}
}

func TestClampVolume(t *testing.T) {
	assert.Equal(t, 0.0, ClampVolume(math.NaN()))
	assert.Equal(t, 0.5, ClampVolume(0.5))
	assert.Equal(t, 1.0, ClampVolume(math.Inf(1)))
}
