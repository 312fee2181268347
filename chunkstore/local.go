package chunkstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hupe1980/trajcache/internal/mmap"
)

// LocalStore implements Store using the local file system.
// Chunks are stored as individual files under a root directory.
type LocalStore struct {
	root string
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) chunkPath(key Key) string {
	return filepath.Join(s.root, fmt.Sprintf("chunk-%08d.bin", key))
}

// Load reads the chunk file for key.
// Files are memory mapped and copied out, which keeps the syscall count
// low for the large sequential reads trajectory chunks produce.
func (s *LocalStore) Load(_ context.Context, key Key) ([]byte, error) {
	m, err := mmap.Open(s.chunkPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("chunk %d: %w", key, ErrNotFound)
		}
		return nil, err
	}
	defer m.Close()

	data := make([]byte, m.Size())
	copy(data, m.Bytes())
	return data, nil
}

// Put writes a chunk file atomically via rename.
func (s *LocalStore) Put(_ context.Context, key Key, data []byte) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.root, "chunk-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.chunkPath(key))
}

// GetManifest reads the manifest file.
func (s *LocalStore) GetManifest(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, "manifest.json"))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, err
}

// PutManifest writes the manifest file atomically via rename.
func (s *LocalStore) PutManifest(_ context.Context, data []byte) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.root, "manifest-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.root, "manifest.json"))
}
