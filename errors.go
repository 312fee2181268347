package trajcache

import (
	"errors"
	"fmt"

	"github.com/hupe1980/trajcache/chunkstore"
)

var (
	// ErrNotConfigured is returned by GetFrame before SetAccessSequence.
	ErrNotConfigured = errors.New("access sequence not set")

	// ErrAlreadyConfigured is returned when SetAccessSequence is called twice.
	ErrAlreadyConfigured = errors.New("access sequence already set")

	// ErrClosed is returned after Cleanup, including to consumers that were
	// still blocked when Cleanup ran.
	ErrClosed = errors.New("frame cache closed")

	// ErrFrameNotScheduled is returned when the requested frame does not
	// appear anywhere in the remaining access sequence.
	ErrFrameNotScheduled = errors.New("frame not in remaining access sequence")
)

// LoadError indicates the chunk store failed to produce a chunk.
//
// A load failure is fatal for the cache instance: the worker stops and
// every consumer blocked on that chunk or any later frame receives it.
// The original storage error can be accessed via errors.Unwrap.
type LoadError struct {
	Key   chunkstore.Key
	cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("chunk %d: load failed: %v", e.Key, e.cause)
}

func (e *LoadError) Unwrap() error { return e.cause }
