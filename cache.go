package trajcache

import (
	"context"
	"fmt"
)

// Config holds the fixed-at-construction cache parameters.
type Config struct {
	// CacheSize is the memory budget for resident chunks, in bytes.
	CacheSize int64

	// FrameSize is the size of one frame's serialized representation,
	// in bytes. Together with FramesPerChunk it converts the byte
	// budget into a chunk count.
	FrameSize int64

	// FramesPerChunk is the number of frames stored per chunk.
	FramesPerChunk int

	// Parallel enables bounded-parallel loading of the initial cache
	// fill. The steady-state engine is always single-worker.
	Parallel bool
}

// MaxCachedChunks returns the number of chunks the byte budget admits.
func (c Config) MaxCachedChunks() int {
	if c.FramesPerChunk <= 0 || c.FrameSize <= 0 {
		return 0
	}
	return int(c.CacheSize / (int64(c.FramesPerChunk) * c.FrameSize))
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.FramesPerChunk <= 0 {
		return fmt.Errorf("frames per chunk must be positive, got %d", c.FramesPerChunk)
	}
	if c.FrameSize <= 0 {
		return fmt.Errorf("frame size must be positive, got %d", c.FrameSize)
	}
	if c.MaxCachedChunks() < 1 {
		return fmt.Errorf("cache size %d admits no chunks (chunk bytes %d)",
			c.CacheSize, int64(c.FramesPerChunk)*c.FrameSize)
	}
	return nil
}

// FrameCache is the contract any frame cache implementation honors.
//
// The lifecycle is: SetAccessSequence once, GetFrame for each planned
// access in non-decreasing sequence position, Cleanup exactly once
// (idempotent thereafter).
type FrameCache interface {
	// SetAccessSequence installs the full, known-in-advance order of
	// frame indices that will be requested. It must be called before
	// any GetFrame; calling it twice fails with ErrAlreadyConfigured.
	SetAccessSequence(seq []int) error

	// GetFrame blocks until the frame's chunk is resident and returns
	// the frame's bytes. The returned slice points into the cache and
	// is valid only until the caller's next GetFrame call.
	GetFrame(ctx context.Context, frame int) ([]byte, error)

	// Cleanup stops background work and releases all cache resources.
	// It is idempotent; after it returns, further calls fail with
	// ErrClosed.
	Cleanup() error
}
