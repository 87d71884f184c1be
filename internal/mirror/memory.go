package mirror

import (
	"context"
	"sync"
)

// MemoryMirror keeps every session in one process-local map. It backs the
// "memory" driver and tests; nothing survives a restart.
type MemoryMirror struct {
	store     *memoryStore
	sessionID string
}

type memoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func MemoryFactory() Factory {
	store := &memoryStore{values: map[string][]byte{}}
	return func(sessionID string) Mirror {
		return &MemoryMirror{store: store, sessionID: sessionID}
	}
}

func NewMemoryMirror(sessionID string) *MemoryMirror {
	return &MemoryMirror{store: &memoryStore{values: map[string][]byte{}}, sessionID: sessionID}
}

func (m *MemoryMirror) Load(_ context.Context, key string) ([]byte, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	value, ok := m.store.values[namespaced("memory", m.sessionID, key)]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), value...), nil
}

func (m *MemoryMirror) Save(_ context.Context, key string, value []byte) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	m.store.values[namespaced("memory", m.sessionID, key)] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryMirror) Delete(_ context.Context, keys ...string) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	for _, key := range keys {
		delete(m.store.values, namespaced("memory", m.sessionID, key))
	}
	return nil
}
