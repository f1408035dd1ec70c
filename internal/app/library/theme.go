package library

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/osa030/tunedeck/internal/infra/storage"
)

// Theme is the UI color scheme.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"

	DefaultTheme = ThemeDark
)

var ErrInvalidTheme = errors.New("theme must be light, dark or system")

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	default:
		return false
	}
}

// ThemeStore keeps the UI theme.
type ThemeStore struct {
	mu    sync.RWMutex
	store storage.Store
	theme Theme
}

// NewThemeStore loads the theme from store, falling back to dark.
func NewThemeStore(store storage.Store) *ThemeStore {
	s := &ThemeStore{store: store, theme: DefaultTheme}
	var theme Theme
	if load(store, storage.NamespaceTheme, &theme) && theme.Valid() {
		s.theme = theme
	}
	return s
}

// Get returns the theme.
func (s *ThemeStore) Get() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// Set changes the theme.
func (s *ThemeStore) Set(theme Theme) error {
	if !theme.Valid() {
		return errors.Wrapf(ErrInvalidTheme, "got %q", theme)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
	return persist(s.store, storage.NamespaceTheme, s.theme)
}

// Reset restores the default theme.
func (s *ThemeStore) Reset() error {
	return s.Set(DefaultTheme)
}
