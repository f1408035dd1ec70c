// Package session provides the session manager that owns the player and
// its collaborators for the lifetime of the process.
package session

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/app/library"
	"github.com/osa030/tunedeck/internal/app/notification"
	"github.com/osa030/tunedeck/internal/app/playback"
	"github.com/osa030/tunedeck/internal/app/queue"
	"github.com/osa030/tunedeck/internal/app/search"
	"github.com/osa030/tunedeck/internal/app/transport"
	"github.com/osa030/tunedeck/internal/domain/track"
	"github.com/osa030/tunedeck/internal/infra/config"
	"github.com/osa030/tunedeck/internal/infra/storage"
)

var ErrSessionClosed = errors.New("session is closed")

// Finder searches and looks up tracks.
type Finder interface {
	search.Searcher
	Lookup(ctx context.Context, sourceID string) (track.Track, error)
}

// Manager manages the player session.
type Manager struct {
	mu     sync.Mutex
	closed bool
	done   chan struct{}

	config *config.Config

	// Components
	store        storage.Store
	library      *library.Library
	controller   *playback.Controller
	notification *notification.Manager
	finder       Finder
	search       *search.Session
}

// options holds collaborators that replace the configured defaults.
type options struct {
	store     storage.Store
	transport transport.Adapter
	finder    Finder
}

// Option overrides a collaborator.
type Option func(*options)

// WithStore uses store instead of the configured storage driver.
func WithStore(store storage.Store) Option {
	return func(o *options) { o.store = store }
}

// WithTransport uses a instead of the clock-driven transport.
func WithTransport(a transport.Adapter) Option {
	return func(o *options) { o.transport = a }
}

// WithFinder uses f instead of the configured search providers.
func WithFinder(f Finder) Option {
	return func(o *options) { o.finder = f }
}

// NewManager creates a new session manager. Call Start to begin playback
// event processing and Close to tear it down.
func NewManager(ctx context.Context, cfg *config.Config, opts ...Option) (*Manager, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.store == nil {
		store, err := storage.New(cfg.Storage.Driver, cfg.Storage.Dir)
		if err != nil {
			// Library state stays usable in memory when the medium is unavailable
			zlog.Warn().Msgf("session: storage unavailable, using memory driver error=%v", err)
			store = storage.NewMemory()
		}
		o.store = store
	}

	if o.finder == nil {
		chain, err := search.NewProviderChainFromConfig(ctx, cfg.Search)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create search provider chain")
		}
		o.finder = chain
	}

	if o.transport == nil {
		o.transport = transport.NewClock(transport.ClockConfig{
			TickInterval:   cfg.Player.TickInterval(),
			RejectAutoplay: cfg.Player.RejectAutoplay,
			Volume:         cfg.Player.DefaultVolume,
		}, transport.DefaultResolver())
	}

	lib := library.New(o.store, library.Config{
		RecentMax:        cfg.Library.RecentMax,
		SearchHistoryMax: cfg.Library.SearchHistoryMax,
	})
	notif := notification.NewManager()

	controller := playback.NewController(playback.Config{
		RecentThreshold: cfg.Player.RecentThreshold(),
		LoadTimeout:     cfg.Player.LoadTimeout(),
	}, queue.New(), o.transport,
		playback.WithRecorder(lib.Recent),
		playback.WithSettingsSaver(lib.Settings),
		playback.WithPublisher(notif),
	)
	controller.ApplySettings(lib.Settings.Get().Player())

	return &Manager{
		config:       cfg,
		store:        o.store,
		library:      lib,
		controller:   controller,
		notification: notif,
		finder:       o.finder,
		search:       search.NewSession(o.finder, lib.History),
		done:         make(chan struct{}),
	}, nil
}

// Start starts consuming transport events.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrSessionClosed
	}
	m.controller.Start()
	zlog.Info().Msg("session: started")
	return nil
}

// Close stops the controller, releases the transport and drops subscribers.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.done)
	m.mu.Unlock()

	m.search.Clear()
	m.controller.Close()
	m.notification.Close()
	zlog.Info().Msg("session: closed")
}

// Done is closed when the session is closed.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Player returns the playback controller.
func (m *Manager) Player() *playback.Controller {
	return m.controller
}

// Library returns the user library.
func (m *Manager) Library() *library.Library {
	return m.library
}

// Search returns the search session.
func (m *Manager) Search() *search.Session {
	return m.search
}

// Notifications returns the status broadcaster.
func (m *Manager) Notifications() *notification.Manager {
	return m.notification
}

// Lookup resolves a track by source id.
func (m *Manager) Lookup(ctx context.Context, sourceID string) (track.Track, error) {
	return m.finder.Lookup(ctx, sourceID)
}

// Enqueue looks tracks up by source id and appends them to the queue.
// With play set, playback starts at the first added track.
func (m *Manager) Enqueue(ctx context.Context, sourceIDs []string, play bool) ([]track.Track, error) {
	if len(sourceIDs) == 0 {
		return nil, errors.New("at least one source id is required")
	}
	tracks := make([]track.Track, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		t, err := m.finder.Lookup(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to look up %s", id)
		}
		tracks = append(tracks, t)
	}

	if !play {
		return tracks, m.controller.AddToQueue(tracks...)
	}
	return tracks, m.controller.AddAndPlay(tracks...)
}

// UpdateSettings updates the stored settings and applies them to the player.
func (m *Manager) UpdateSettings(fn func(*library.Settings)) (library.Settings, error) {
	settings, err := m.library.Settings.Update(fn)
	m.controller.ApplySettings(settings.Player())
	return settings, err
}

// Import restores a library backup and applies its player settings.
func (m *Manager) Import(b library.Backup) error {
	err := m.library.Import(b)
	m.controller.ApplySettings(m.library.Settings.Get().Player())
	return err
}
