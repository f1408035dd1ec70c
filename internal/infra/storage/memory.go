package storage

import (
	"encoding/json"
	"sync"

	"github.com/cockroachdb/errors"
)

// Memory is a Store held in process memory. Values are kept encoded so
// stored data never aliases caller values.
type Memory struct {
	mu   sync.RWMutex
	data map[Namespace][]byte
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[Namespace][]byte)}
}

// Get implements Store.
func (m *Memory) Get(ns Namespace, v any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.data[ns]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, errors.Wrapf(err, "decode %s", ns)
	}
	return true, nil
}

// Set implements Store.
func (m *Memory) Set(ns Namespace, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", ns)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[ns] = raw
	return nil
}

// Remove implements Store.
func (m *Memory) Remove(ns Namespace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, ns)
	return nil
}
