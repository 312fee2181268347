package chunkstore

import (
	"context"
	"fmt"

	"github.com/hupe1980/trajcache/codec"
)

// CompressedStore wraps a Store whose chunks were written through a
// codec.Compressor and decompresses them on load.
type CompressedStore struct {
	inner Store
	comp  codec.Compressor
}

// NewCompressedStore creates a CompressedStore.
// If comp is nil, codec.Default is used.
func NewCompressedStore(inner Store, comp codec.Compressor) *CompressedStore {
	if comp == nil {
		comp = codec.Default
	}
	return &CompressedStore{inner: inner, comp: comp}
}

// Load fetches and decompresses the chunk for key.
func (s *CompressedStore) Load(ctx context.Context, key Key) ([]byte, error) {
	raw, err := s.inner.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	data, err := s.comp.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("chunk %d: decompress (%s): %w", key, s.comp.Name(), err)
	}
	return data, nil
}
