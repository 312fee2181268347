package chunkstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when a chunk or manifest does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Key identifies one chunk within a trajectory dataset.
type Key uint32

// Store is an abstraction for fetching immutable trajectory chunks.
// Loads are synchronous and may be slow (remote object storage).
type Store interface {
	// Load returns the raw contents of the chunk identified by key.
	// It returns an error satisfying errors.Is(err, ErrNotFound) if the
	// chunk does not exist.
	Load(ctx context.Context, key Key) ([]byte, error)
}

// ManifestStore is an optional interface for backends that also hold the
// dataset manifest alongside the chunks.
type ManifestStore interface {
	// GetManifest returns the raw manifest bytes.
	GetManifest(ctx context.Context) ([]byte, error)
	// PutManifest writes the manifest atomically.
	PutManifest(ctx context.Context, data []byte) error
}
