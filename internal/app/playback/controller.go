package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/app/queue"
	"github.com/osa030/tunedeck/internal/app/transport"
	"github.com/osa030/tunedeck/internal/domain/track"
)

// Errors
var (
	ErrIndexOutOfRange = errors.New("queue index out of range")
	ErrInvalidSeek     = errors.New("seek position is not valid for the current track")
	ErrClosed          = errors.New("controller is closed")
)

// DefaultRecentThreshold is the continuous playback needed before a track
// counts as recently played.
const DefaultRecentThreshold = 30 * time.Second

// Recorder is notified once per load when a track has played long enough.
type Recorder interface {
	Record(t track.Track)
}

// SettingsSaver persists player settings.
type SettingsSaver interface {
	SavePlayerSettings(s PlayerSettings) error
}

// Publisher receives a status snapshot after every change.
type Publisher interface {
	Publish(s Status)
}

// Config holds controller configuration.
type Config struct {
	RecentThreshold time.Duration // Continuous playback before recording; 0 uses the default
	LoadTimeout     time.Duration // Bound on media resolution; 0 means none
}

// Controller binds a queue.Store to a transport.Adapter. It owns both and
// serializes every transition under its lock.
type Controller struct {
	mu sync.RWMutex

	queue     *queue.Store
	transport transport.Adapter
	config    Config

	state      State
	errMsg     string
	loaded     bool   // transport holds loadedID
	loadedID   string // track the transport was last loaded with
	generation uint64 // generation of the last load; other events are stale

	// Recently-played tracking for the current load
	recorded    bool
	windowStart time.Duration // position the continuous window began at

	recorder  Recorder
	saver     SettingsSaver
	publisher Publisher

	// Deferred side effects, run after the lock is released
	pendingRecord *track.Track
	settingsDirty bool

	unsubscribe func()
	done        chan struct{}
	closed      bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithRecorder sets the recently-played collaborator.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithSettingsSaver sets the settings persistence collaborator.
func WithSettingsSaver(s SettingsSaver) Option {
	return func(c *Controller) {
		c.saver = s
	}
}

// WithPublisher sets the status subscriber.
func WithPublisher(p Publisher) Option {
	return func(c *Controller) {
		c.publisher = p
	}
}

// NewController creates a controller over q and t. Call Start to begin
// consuming transport events.
func NewController(config Config, q *queue.Store, t transport.Adapter, opts ...Option) *Controller {
	if config.RecentThreshold <= 0 {
		config.RecentThreshold = DefaultRecentThreshold
	}
	c := &Controller{
		queue:     q,
		transport: t,
		config:    config,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if _, ok := q.Current(); ok {
		c.state = StatePaused
	}
	return c
}

// Start subscribes to the transport and folds its events in arrival order
// on a single goroutine until Close.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done != nil || c.closed {
		return
	}
	events, unsubscribe := c.transport.Subscribe()
	c.unsubscribe = unsubscribe
	c.done = make(chan struct{})
	go c.loop(events, c.done)
}

func (c *Controller) loop(events <-chan transport.Event, done chan struct{}) {
	defer close(done)
	for e := range events {
		c.HandleEvent(e)
	}
}

// Close unsubscribes from the transport, waits for the event loop and
// closes the transport.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubscribe, done := c.unsubscribe, c.done
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
		<-done
	}
	c.transport.Close()
	zlog.Info().Msg("playback: controller closed")
}

// ApplySettings restores persisted settings without saving them again.
func (c *Controller) ApplySettings(s PlayerSettings) {
	c.mutate(func() error {
		c.transport.SetVolume(s.Volume)
		c.transport.SetMuted(s.Muted)
		c.queue.SetShuffle(s.Shuffle)
		c.queue.SetRepeat(s.Repeat)
		return nil
	})
}

// Play starts the current track, loading it first if needed. Without a
// current track it is a no-op. A transport rejection moves the controller
// to the error state and is returned as a *transport.PlaybackError.
func (c *Controller) Play() error {
	return c.mutate(c.playLocked)
}

// Pause pauses playback.
func (c *Controller) Pause() error {
	return c.mutate(func() error {
		c.pauseLocked()
		return nil
	})
}

// TogglePlay pauses when playing and plays otherwise.
func (c *Controller) TogglePlay() error {
	return c.mutate(func() error {
		if c.state == StatePlaying {
			c.pauseLocked()
			return nil
		}
		return c.playLocked()
	})
}

// Stop pauses and rewinds to the start of the current track.
func (c *Controller) Stop() error {
	return c.mutate(func() error {
		c.transport.Stop()
		c.settleLocked()
		return nil
	})
}

// SetQueue replaces the queue. The first track becomes current, paused.
func (c *Controller) SetQueue(tracks []track.Track) error {
	return c.mutate(func() error {
		c.queue.SetQueue(tracks)
		c.unloadLocked()
		return nil
	})
}

// PlayQueue replaces the queue and starts playing at position start.
func (c *Controller) PlayQueue(tracks []track.Track, start int) error {
	return c.mutate(func() error {
		if len(tracks) > 0 && (start < 0 || start >= len(tracks)) {
			return errors.Wrapf(ErrIndexOutOfRange, "start %d", start)
		}
		c.queue.SetQueue(tracks)
		c.unloadLocked()
		if len(tracks) == 0 {
			return nil
		}
		c.queue.Select(start)
		return c.playLocked()
	})
}

// SetCurrentTrack makes t current without altering the queue. Playback
// stops at position 0; the track is loaded on the next Play.
func (c *Controller) SetCurrentTrack(t track.Track) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return c.mutate(func() error {
		c.queue.SetCurrentTrack(t)
		c.unloadLocked()
		return nil
	})
}

// AddToQueue appends tracks to the queue.
func (c *Controller) AddToQueue(tracks ...track.Track) error {
	for _, t := range tracks {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return c.mutate(func() error {
		c.queue.Add(tracks...)
		if c.state == StateIdle {
			c.settleLocked()
		}
		return nil
	})
}

// AddAndPlay appends tracks to the queue and starts playing the first of
// them under a single lock. Queued tracks and the repeat mode are kept.
func (c *Controller) AddAndPlay(tracks ...track.Track) error {
	if len(tracks) == 0 {
		return nil
	}
	for _, t := range tracks {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return c.mutate(func() error {
		start := c.queue.Len()
		c.queue.Add(tracks...)
		c.unloadLocked()
		c.queue.Select(start)
		return c.playLocked()
	})
}

// RemoveFromQueue removes the track at index. When the current track is
// removed, the new current track is loaded paused.
func (c *Controller) RemoveFromQueue(index int) error {
	return c.mutate(func() error {
		before, _ := c.queue.Current()
		if !c.queue.Remove(index) {
			return errors.Wrapf(ErrIndexOutOfRange, "index %d", index)
		}
		after, ok := c.queue.Current()
		if !ok {
			c.unloadLocked()
			return nil
		}
		if after.ID == before.ID {
			return nil
		}
		c.transport.Stop()
		if err := c.loadLocked(after); err != nil {
			return err
		}
		c.state = StatePaused
		return nil
	})
}

// ClearQueue empties the queue and stops the transport.
func (c *Controller) ClearQueue() error {
	return c.mutate(func() error {
		c.queue.Clear()
		c.unloadLocked()
		return nil
	})
}

// SkipNext moves to the next track, preserving play or pause intent.
func (c *Controller) SkipNext() error {
	return c.mutate(func() error {
		return c.skipLocked(c.queue.Advance)
	})
}

// SkipPrevious moves to the previous track, preserving play or pause intent.
func (c *Controller) SkipPrevious() error {
	return c.mutate(func() error {
		return c.skipLocked(c.queue.Retreat)
	})
}

// Seek moves the transport to seconds. The current track is loaded first
// if needed. Non-finite or out-of-range positions return ErrInvalidSeek.
func (c *Controller) Seek(seconds float64) error {
	return c.mutate(func() error {
		cur, ok := c.queue.Current()
		if !ok {
			return ErrInvalidSeek
		}
		if !c.isLoadedLocked(cur) {
			if err := c.loadLocked(cur); err != nil {
				return err
			}
		}
		if !c.transport.Seek(seconds) {
			return errors.Wrapf(ErrInvalidSeek, "position %v", seconds)
		}
		c.windowStart = c.transport.Position()
		return nil
	})
}

// SetVolume sets the stored volume, clamped to [0,1], and returns it.
func (c *Controller) SetVolume(v float64) float64 {
	var result float64
	c.mutate(func() error {
		result = c.transport.SetVolume(v)
		c.settingsDirty = true
		return nil
	})
	return result
}

// ToggleMute flips mute and returns the new value. The stored volume is
// not changed.
func (c *Controller) ToggleMute() bool {
	var muted bool
	c.mutate(func() error {
		muted = !c.transport.Muted()
		c.transport.SetMuted(muted)
		c.settingsDirty = true
		return nil
	})
	return muted
}

// ToggleShuffle flips shuffled traversal and returns the new value.
func (c *Controller) ToggleShuffle() bool {
	var shuffle bool
	c.mutate(func() error {
		shuffle = c.queue.ToggleShuffle()
		c.settingsDirty = true
		return nil
	})
	return shuffle
}

// CycleRepeat advances the repeat mode and returns the new value.
func (c *Controller) CycleRepeat() queue.RepeatMode {
	var mode queue.RepeatMode
	c.mutate(func() error {
		mode = c.queue.CycleRepeat()
		c.settingsDirty = true
		return nil
	})
	return mode
}

// Status returns the current status.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statusLocked()
}

// Queue returns a snapshot of the queue.
func (c *Controller) Queue() queue.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.queue.Snapshot()
}

// HandleEvent folds a transport event into the controller. Events from a
// previous load are dropped.
func (c *Controller) HandleEvent(e transport.Event) {
	c.mutate(func() error {
		if e.Generation != c.generation {
			zlog.Debug().Msgf("playback: dropping stale %s event generation=%d current=%d", e.Type, e.Generation, c.generation)
			return nil
		}
		switch e.Type {
		case transport.EventTimeUpdated:
			c.checkRecordLocked(e.Position)
		case transport.EventEnded:
			return c.onEndedLocked()
		case transport.EventError:
			c.state = StateError
			c.errMsg = e.Message
			zlog.Warn().Msgf("playback: transport error track=%s message=%s", e.TrackID, e.Message)
		}
		return nil
	})
}

// mutate runs fn under the lock and then, unlocked, publishes the new
// status and runs the side effects fn scheduled.
func (c *Controller) mutate(fn func() error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	err := fn()
	status := c.statusLocked()
	record := c.pendingRecord
	c.pendingRecord = nil
	var settings *PlayerSettings
	if c.settingsDirty {
		c.settingsDirty = false
		s := c.settingsLocked()
		settings = &s
	}
	c.mu.Unlock()

	if record != nil && c.recorder != nil {
		c.recorder.Record(*record)
	}
	if settings != nil && c.saver != nil {
		if saveErr := c.saver.SavePlayerSettings(*settings); saveErr != nil {
			zlog.Warn().Err(saveErr).Msg("playback: failed to save player settings")
		}
	}
	if c.publisher != nil {
		c.publisher.Publish(status)
	}
	return err
}

func (c *Controller) playLocked() error {
	cur, ok := c.queue.Current()
	if !ok {
		return nil
	}
	if c.isLoadedLocked(cur) && c.state == StatePlaying {
		return nil
	}
	if !c.isLoadedLocked(cur) {
		if err := c.loadLocked(cur); err != nil {
			return err
		}
	}
	if err := c.transport.Play(); err != nil {
		return c.failLocked(err)
	}
	c.state = StatePlaying
	c.errMsg = ""
	c.windowStart = c.transport.Position()
	zlog.Debug().Msgf("playback: playing track=%s", cur.ID)
	return nil
}

func (c *Controller) pauseLocked() {
	if c.state != StatePlaying {
		return
	}
	c.transport.Pause()
	c.state = StatePaused
}

// loadLocked loads t into the transport and resets per-load state.
func (c *Controller) loadLocked(t track.Track) error {
	ctx := context.Background()
	if c.config.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.LoadTimeout)
		defer cancel()
	}

	gen, err := c.transport.Load(ctx, t)
	c.generation = gen
	c.recorded = false
	c.windowStart = 0
	if err != nil {
		c.loaded = false
		c.loadedID = ""
		return c.failLocked(err)
	}
	c.loaded = true
	c.loadedID = t.ID
	c.errMsg = ""
	return nil
}

func (c *Controller) isLoadedLocked(t track.Track) bool {
	return c.loaded && c.loadedID == t.ID
}

// unloadLocked stops the transport and forgets the loaded track. The state
// settles on the queue's current track.
func (c *Controller) unloadLocked() {
	c.transport.Stop()
	c.loaded = false
	c.loadedID = ""
	c.errMsg = ""
	c.settleLocked()
}

// settleLocked sets paused when a current track exists, idle otherwise.
func (c *Controller) settleLocked() {
	if _, ok := c.queue.Current(); ok {
		c.state = StatePaused
		return
	}
	c.state = StateIdle
}

func (c *Controller) failLocked(err error) error {
	c.state = StateError
	c.errMsg = err.Error()
	zlog.Warn().Err(err).Msg("playback: transport rejected playback")
	return err
}

func (c *Controller) skipLocked(step func() (track.Track, bool)) error {
	wasPlaying := c.state == StatePlaying
	next, moved := step()
	if !moved {
		return nil
	}
	c.transport.Stop()
	if err := c.loadLocked(next); err != nil {
		return err
	}
	c.state = StatePaused
	if !wasPlaying {
		return nil
	}
	return c.playLocked()
}

// onEndedLocked handles the end of the loaded track.
func (c *Controller) onEndedLocked() error {
	cur, ok := c.queue.Current()
	if !ok {
		c.state = StateIdle
		return nil
	}

	if c.queue.Repeat() == queue.RepeatTrack {
		c.transport.Seek(0)
		c.recorded = false
		c.state = StatePaused
		zlog.Debug().Msgf("playback: repeating track=%s", cur.ID)
		return c.playLocked()
	}

	next, moved := c.queue.Advance()
	if !moved {
		c.transport.Stop()
		c.state = StatePaused
		zlog.Debug().Msgf("playback: end of queue at track=%s", cur.ID)
		return nil
	}
	if err := c.loadLocked(next); err != nil {
		return err
	}
	c.state = StatePaused
	return c.playLocked()
}

// checkRecordLocked schedules a recently-played record once the current
// load has played continuously for the threshold.
func (c *Controller) checkRecordLocked(pos time.Duration) {
	if c.recorded || c.state != StatePlaying {
		return
	}
	if pos-c.windowStart < c.config.RecentThreshold {
		return
	}
	cur, ok := c.queue.Current()
	if !ok {
		return
	}
	c.recorded = true
	c.pendingRecord = &cur
	zlog.Debug().Msgf("playback: recording recently played track=%s", cur.ID)
}

func (c *Controller) settingsLocked() PlayerSettings {
	return PlayerSettings{
		Volume:  c.transport.Volume(),
		Muted:   c.transport.Muted(),
		Shuffle: c.queue.Shuffle(),
		Repeat:  c.queue.Repeat(),
	}
}

func (c *Controller) statusLocked() Status {
	s := Status{
		State:           c.state,
		Volume:          c.transport.Volume(),
		Muted:           c.transport.Muted(),
		EffectiveVolume: c.transport.EffectiveVolume(),
		Error:           c.errMsg,
		Queue:           c.queue.Snapshot(),
	}
	cur, ok := c.queue.Current()
	if !ok {
		return s
	}
	if c.isLoadedLocked(cur) {
		s.Position = c.transport.Position()
		s.Duration = c.transport.Duration()
	}
	if s.Duration <= 0 {
		s.Duration = cur.Duration
	}
	return s
}
