package transport

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/domain/track"
)

const subscriberBuffer = 64

var _ Adapter = (*Clock)(nil)

// ClockConfig holds Clock configuration.
type ClockConfig struct {
	TickInterval   time.Duration // Interval between time_updated events while playing
	RejectAutoplay bool          // Reject every Play call as an autoplay policy would
	Volume         float64       // Initial volume
}

// Clock is an Adapter that plays media in wall-clock time. Position advances
// while playing, time_updated is emitted every tick and ended is emitted
// once the nominal duration is reached.
type Clock struct {
	mu sync.Mutex

	config   ClockConfig
	resolver Resolver
	now      func() time.Time

	loaded     *track.Track
	streamURL  string
	generation uint64
	duration   time.Duration

	playing  bool
	position time.Duration // position at anchor
	anchor   time.Time     // wall time playback (re)started

	volume float64
	muted  bool

	timerCancel func()
	subs        map[uuid.UUID]chan Event
	closed      bool
}

// ClockOption configures a Clock.
type ClockOption func(*Clock)

// WithNow overrides the wall clock.
func WithNow(now func() time.Time) ClockOption {
	return func(c *Clock) {
		c.now = now
	}
}

// NewClock creates a Clock adapter.
func NewClock(config ClockConfig, resolver Resolver, opts ...ClockOption) *Clock {
	if config.TickInterval <= 0 {
		config.TickInterval = 250 * time.Millisecond
	}
	if resolver == nil {
		resolver = DefaultResolver()
	}
	c := &Clock{
		config:   config,
		resolver: resolver,
		now:      func() time.Time { return toWallTime(time.Now()) },
		volume:   ClampVolume(config.Volume),
		subs:     make(map[uuid.UUID]chan Event),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load implements Adapter.
func (c *Clock) Load(ctx context.Context, t track.Track) (uint64, error) {
	streamURL, err := c.resolver.Resolve(ctx, t)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, &PlaybackError{TrackID: t.ID, Err: ErrClosed}
	}

	c.stopTimerLocked()
	c.generation++
	c.playing = false
	c.position = 0

	if err != nil {
		c.loaded = nil
		c.streamURL = ""
		c.duration = 0
		zlog.Warn().Err(err).Msgf("transport: resolve failed track=%s source=%s", t.ID, t.SourceID)
		c.emitLocked(Event{Type: EventError, TrackID: t.ID, Message: err.Error()})
		return c.generation, &PlaybackError{TrackID: t.ID, Err: err}
	}

	loaded := t
	c.loaded = &loaded
	c.streamURL = streamURL
	c.duration = t.Duration

	zlog.Debug().Msgf("transport: loaded track=%s url=%s generation=%d", t.ID, streamURL, c.generation)
	if c.duration > 0 {
		c.emitLocked(Event{Type: EventDurationKnown, TrackID: t.ID, Duration: c.duration})
	}
	return c.generation, nil
}

// Play implements Adapter.
func (c *Clock) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded == nil {
		return &PlaybackError{Err: ErrNoSource}
	}
	if c.playing {
		return nil
	}
	id := c.loaded.ID
	if c.config.RejectAutoplay {
		c.emitLocked(Event{Type: EventError, TrackID: id, Message: ErrAutoplayBlocked.Error()})
		return &PlaybackError{TrackID: id, Err: ErrAutoplayBlocked}
	}
	if c.duration <= 0 {
		c.emitLocked(Event{Type: EventError, TrackID: id, Message: ErrBrokenSource.Error()})
		return &PlaybackError{TrackID: id, Err: ErrBrokenSource}
	}

	// Playing after the end restarts from the beginning
	if c.position >= c.duration {
		c.position = 0
	}
	c.playing = true
	c.anchor = c.now()
	c.startTimerLocked(c.generation)

	c.emitLocked(Event{Type: EventStarted, TrackID: id, Position: c.position, Duration: c.duration})
	return nil
}

// Pause implements Adapter.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked()
}

func (c *Clock) pauseLocked() {
	if !c.playing {
		return
	}
	c.position = c.positionLocked()
	c.playing = false
	c.stopTimerLocked()
	c.emitLocked(Event{Type: EventPaused, TrackID: c.loadedID(), Position: c.position, Duration: c.duration})
}

// Stop implements Adapter.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pauseLocked()
	if c.loaded == nil || c.position == 0 {
		c.position = 0
		return
	}
	c.position = 0
	c.emitLocked(Event{Type: EventTimeUpdated, TrackID: c.loadedID(), Duration: c.duration})
}

// Seek implements Adapter.
func (c *Clock) Seek(seconds float64) bool {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// Compare in seconds so huge inputs cannot overflow the conversion.
	if c.loaded == nil || seconds > c.duration.Seconds() {
		return false
	}
	pos := time.Duration(seconds * float64(time.Second))
	c.position = pos
	c.anchor = c.now()
	c.emitLocked(Event{Type: EventTimeUpdated, TrackID: c.loadedID(), Position: pos, Duration: c.duration})
	return true
}

// SetVolume implements Adapter.
func (c *Clock) SetVolume(v float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if math.IsNaN(v) {
		return c.volume
	}
	c.volume = ClampVolume(v)
	return c.volume
}

// SetMuted implements Adapter.
func (c *Clock) SetMuted(muted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = muted
}

// Volume implements Adapter.
func (c *Clock) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// Muted implements Adapter.
func (c *Clock) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// EffectiveVolume implements Adapter.
func (c *Clock) EffectiveVolume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.muted {
		return 0
	}
	return c.volume
}

// Position implements Adapter.
func (c *Clock) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

// Duration implements Adapter.
func (c *Clock) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// IsPlaying implements Adapter.
func (c *Clock) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// StreamURL returns the resolved URL of the loaded media.
func (c *Clock) StreamURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streamURL
}

// Subscribe implements Adapter.
func (c *Clock) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := uuid.New()
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close implements Adapter.
func (c *Clock) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.playing = false
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
}

// tick advances a playing generation. It returns false once the timer for
// that generation should stop.
func (c *Clock) tick(generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.playing || c.generation != generation {
		return false
	}
	pos := c.positionLocked()
	id := c.loadedID()
	if pos >= c.duration {
		c.position = c.duration
		c.playing = false
		c.timerCancel = nil
		c.emitLocked(Event{Type: EventTimeUpdated, TrackID: id, Position: c.duration, Duration: c.duration})
		c.emitLocked(Event{Type: EventEnded, TrackID: id, Position: c.duration, Duration: c.duration})
		zlog.Debug().Msgf("transport: ended track=%s generation=%d", id, generation)
		return false
	}
	c.emitLocked(Event{Type: EventTimeUpdated, TrackID: id, Position: pos, Duration: c.duration})
	return true
}

func (c *Clock) positionLocked() time.Duration {
	if !c.playing {
		return c.position
	}
	pos := c.position + c.now().Sub(c.anchor)
	if pos > c.duration {
		return c.duration
	}
	return pos
}

func (c *Clock) loadedID() string {
	if c.loaded == nil {
		return ""
	}
	return c.loaded.ID
}

// emitLocked sends an event to every subscriber without blocking.
// Must be called with lock held.
func (c *Clock) emitLocked(e Event) {
	e.Generation = c.generation
	for id, ch := range c.subs {
		select {
		case ch <- e:
		default:
			zlog.Warn().Msgf("transport: subscriber %s is full, dropping %s event", id, e.Type)
		}
	}
}

// startTimerLocked starts the wall-clock ticker for generation.
// Must be called with lock held.
func (c *Clock) startTimerLocked(generation uint64) {
	c.stopTimerLocked()

	ctx, cancel := context.WithCancel(context.Background())
	interval := c.config.TickInterval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !c.tick(generation) {
					return
				}
			}
		}
	}()
	c.timerCancel = cancel
}

func (c *Clock) stopTimerLocked() {
	if c.timerCancel != nil {
		c.timerCancel()
		c.timerCancel = nil
	}
}

// toWallTime returns the time with monotonic clock stripped.
func toWallTime(t time.Time) time.Time {
	return time.Unix(t.Unix(), int64(t.Nanosecond()))
}
