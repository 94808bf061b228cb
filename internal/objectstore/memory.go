package objectstore

import (
	"context"
	"strings"
	"sync"
)

// Memory is an in-process Store backed by a map. Used by tests and for
// ephemeral local runs (data is lost when the process exits).
//
// A single mutex guards the map. That also makes PutIfAbsent atomic, which is
// the property the signup race tests rely on.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

// compile-time check that *Memory implements Store
var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	// Return a copy so callers can't mutate our internal state.
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Memory) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	m.data[key] = stored
	return nil
}

func (m *Memory) PutIfAbsent(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[key]; ok {
		return ErrKeyExists
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.data[key] = stored
	return nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0)
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
