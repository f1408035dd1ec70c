// Package storage provides a namespaced JSON key-value store.
package storage

import (
	"github.com/cockroachdb/errors"
)

// Namespace names one independent collection in the store.
type Namespace string

const (
	NamespacePlaylists      Namespace = "playlists"
	NamespaceFavorites      Namespace = "favorites"
	NamespaceRecentlyPlayed Namespace = "recently_played"
	NamespaceSearchHistory  Namespace = "search_history"
	NamespacePlayerSettings Namespace = "player_settings"
	NamespaceTheme          Namespace = "theme"
)

// Namespaces lists every namespace the library uses.
var Namespaces = []Namespace{
	NamespacePlaylists,
	NamespaceFavorites,
	NamespaceRecentlyPlayed,
	NamespaceSearchHistory,
	NamespacePlayerSettings,
	NamespaceTheme,
}

// Driver names.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
)

var (
	ErrUnavailable   = errors.New("storage is unavailable")
	ErrUnknownDriver = errors.New("unknown storage driver")
)

// Store persists JSON-serializable values by namespace.
type Store interface {
	// Get decodes the value stored under ns into v. It reports false when
	// nothing is stored.
	Get(ns Namespace, v any) (bool, error)
	// Set replaces the value stored under ns.
	Set(ns Namespace, v any) error
	// Remove deletes the value stored under ns. Removing a missing value is
	// not an error.
	Remove(ns Namespace) error
}

// New creates a Store for driver. dir is used by the file driver.
func New(driver, dir string) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverFile:
		return NewFile(dir)
	default:
		return nil, errors.Wrapf(ErrUnknownDriver, "driver %q", driver)
	}
}
