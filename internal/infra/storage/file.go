package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// File is a Store that keeps one JSON file per namespace in a directory.
// Writes go to a temporary file that is renamed into place.
type File struct {
	mu  sync.Mutex
	dir string
}

// NewFile creates a File store rooted at dir, creating it if needed.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.Wrap(ErrUnavailable, "storage directory is not set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "create %s: %v", dir, err)
	}
	zlog.Info().Msgf("storage: using directory %s", dir)
	return &File{dir: dir}, nil
}

func (f *File) path(ns Namespace) string {
	return filepath.Join(f.dir, string(ns)+".json")
}

// Get implements Store.
func (f *File) Get(ns Namespace, v any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path(ns))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(ErrUnavailable, "read %s: %v", ns, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, errors.Wrapf(err, "decode %s", ns)
	}
	return true, nil
}

// Set implements Store.
func (f *File) Set(ns Namespace, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", ns)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, string(ns)+"-*.tmp")
	if err != nil {
		return errors.Wrapf(ErrUnavailable, "write %s: %v", ns, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return errors.Wrapf(ErrUnavailable, "write %s: %v", ns, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(ErrUnavailable, "write %s: %v", ns, err)
	}
	if err := os.Rename(tmp.Name(), f.path(ns)); err != nil {
		return errors.Wrapf(ErrUnavailable, "write %s: %v", ns, err)
	}
	return nil
}

// Remove implements Store.
func (f *File) Remove(ns Namespace) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path(ns))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(ErrUnavailable, "remove %s: %v", ns, err)
	}
	return nil
}
