package chunkstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store implementation for testing.
// Thread-safe for concurrent reads and writes.
type MemoryStore struct {
	mu       sync.RWMutex
	chunks   map[Key][]byte
	manifest []byte
}

// NewMemoryStore creates a new in-memory chunk store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chunks: make(map[Key][]byte),
	}
}

// Load returns the chunk stored under key.
func (m *MemoryStore) Load(_ context.Context, key Key) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.chunks[key]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy to prevent external mutation
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

// Put writes a chunk.
func (m *MemoryStore) Put(_ context.Context, key Key, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	m.chunks[key] = copied
	return nil
}

// Delete removes a chunk.
func (m *MemoryStore) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.chunks, key)
	return nil
}

// Len returns the number of stored chunks.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// GetManifest returns the stored manifest bytes.
func (m *MemoryStore) GetManifest(_ context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.manifest == nil {
		return nil, ErrNotFound
	}
	copied := make([]byte, len(m.manifest))
	copy(copied, m.manifest)
	return copied, nil
}

// PutManifest stores the manifest bytes.
func (m *MemoryStore) PutManifest(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	m.manifest = copied
	return nil
}
