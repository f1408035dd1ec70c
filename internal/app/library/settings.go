package library

import (
	"sync"

	"github.com/osa030/tunedeck/internal/app/playback"
	"github.com/osa030/tunedeck/internal/app/queue"
	"github.com/osa030/tunedeck/internal/app/transport"
	"github.com/osa030/tunedeck/internal/infra/storage"
)

// Settings are the persisted player preferences.
type Settings struct {
	Volume      float64          `json:"volume"`
	Muted       bool             `json:"isMuted"`
	Shuffle     bool             `json:"shuffle"`
	Repeat      queue.RepeatMode `json:"repeat"`
	Crossfade   bool             `json:"crossfade"`
	HighQuality bool             `json:"highQuality"`
}

// DefaultSettings returns the settings used when none are stored.
func DefaultSettings() Settings {
	return Settings{
		Volume:      0.7,
		Repeat:      queue.RepeatNone,
		HighQuality: true,
	}
}

// Player returns the subset applied to the playback controller.
func (s Settings) Player() playback.PlayerSettings {
	return playback.PlayerSettings{
		Volume:  s.Volume,
		Muted:   s.Muted,
		Shuffle: s.Shuffle,
		Repeat:  s.Repeat,
	}
}

// SettingsStore keeps the player settings.
type SettingsStore struct {
	mu       sync.RWMutex
	store    storage.Store
	settings Settings
}

// NewSettingsStore loads settings from store, falling back to defaults.
func NewSettingsStore(store storage.Store) *SettingsStore {
	s := &SettingsStore{store: store, settings: DefaultSettings()}
	settings := DefaultSettings()
	if load(store, storage.NamespacePlayerSettings, &settings) {
		settings.Volume = transport.ClampVolume(settings.Volume)
		s.settings = settings
	}
	return s
}

// Get returns the current settings.
func (s *SettingsStore) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Save replaces the settings. Volume is clamped to [0,1].
func (s *SettingsStore) Save(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings.Volume = transport.ClampVolume(settings.Volume)
	s.settings = settings
	return persist(s.store, storage.NamespacePlayerSettings, s.settings)
}

// Update applies fn to a copy of the settings and saves the result.
func (s *SettingsStore) Update(fn func(*Settings)) (Settings, error) {
	updated := s.Get()
	fn(&updated)
	err := s.Save(updated)
	return s.Get(), err
}

// Reset restores the defaults.
func (s *SettingsStore) Reset() error {
	return s.Save(DefaultSettings())
}

// SavePlayerSettings merges controller settings into the stored settings.
func (s *SettingsStore) SavePlayerSettings(p playback.PlayerSettings) error {
	_, err := s.Update(func(settings *Settings) {
		settings.Volume = p.Volume
		settings.Muted = p.Muted
		settings.Shuffle = p.Shuffle
		settings.Repeat = p.Repeat
	})
	return err
}
