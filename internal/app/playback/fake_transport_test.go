package playback

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/osa030/tunedeck/internal/app/transport"
	"github.com/osa030/tunedeck/internal/domain/track"
)

// fakeTransport records calls and lets tests drive events by hand.
type fakeTransport struct {
	mu sync.Mutex

	loadErr error
	playErr error

	generation uint64
	loaded     *track.Track
	loads      []string
	plays      int
	seeks      []float64
	stops      int

	playing  bool
	position time.Duration
	duration time.Duration
	volume   float64
	muted    bool

	events chan transport.Event
	closed bool
}

var _ transport.Adapter = (*fakeTransport)(nil)

func newFakeTransport() *fakeTransport {
	return &fakeTransport{volume: 0.7, events: make(chan transport.Event, 16)}
}

func (f *fakeTransport) Load(_ context.Context, t track.Track) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	f.playing = false
	f.position = 0
	f.loads = append(f.loads, t.ID)
	if f.loadErr != nil {
		f.loaded = nil
		return f.generation, &transport.PlaybackError{TrackID: t.ID, Err: f.loadErr}
	}
	loaded := t
	f.loaded = &loaded
	f.duration = t.Duration
	return f.generation, nil
}

func (f *fakeTransport) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	if f.loaded == nil {
		return &transport.PlaybackError{Err: transport.ErrNoSource}
	}
	if f.playErr != nil {
		return &transport.PlaybackError{TrackID: f.loaded.ID, Err: f.playErr}
	}
	f.playing = true
	return nil
}

func (f *fakeTransport) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
}

func (f *fakeTransport) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.playing = false
	f.position = 0
}

func (f *fakeTransport) Seek(seconds float64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loaded == nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return false
	}
	pos := time.Duration(seconds * float64(time.Second))
	if pos > f.duration {
		return false
	}
	f.seeks = append(f.seeks, seconds)
	f.position = pos
	return true
}

func (f *fakeTransport) SetVolume(v float64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = transport.ClampVolume(v)
	return f.volume
}

func (f *fakeTransport) SetMuted(muted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muted = muted
}

func (f *fakeTransport) Volume() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}

func (f *fakeTransport) Muted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.muted
}

func (f *fakeTransport) EffectiveVolume() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.muted {
		return 0
	}
	return f.volume
}

func (f *fakeTransport) Position() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position
}

func (f *fakeTransport) Duration() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration
}

func (f *fakeTransport) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *fakeTransport) Subscribe() (<-chan transport.Event, func()) {
	var once sync.Once
	return f.events, func() { once.Do(func() { close(f.events) }) }
}

func (f *fakeTransport) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// setPosition simulates playback progress.
func (f *fakeTransport) setPosition(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = d
}

func (f *fakeTransport) gen() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generation
}

func (f *fakeTransport) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loads)
}

func (f *fakeTransport) playCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays
}

type fakeRecorder struct {
	mu       sync.Mutex
	recorded []string
}

func (r *fakeRecorder) Record(t track.Track) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorded = append(r.recorded, t.ID)
}

func (r *fakeRecorder) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.recorded...)
}

type fakeSaver struct {
	saved []PlayerSettings
	err   error
}

func (s *fakeSaver) SavePlayerSettings(settings PlayerSettings) error {
	s.saved = append(s.saved, settings)
	return s.err
}

type fakePublisher struct {
	mu       sync.Mutex
	statuses []Status
}

func (p *fakePublisher) Publish(s Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, s)
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.statuses)
}
