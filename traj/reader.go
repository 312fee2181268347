package traj

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/trajcache"
	"github.com/hupe1980/trajcache/chunkstore"
	"github.com/hupe1980/trajcache/codec"
)

// ReaderStore is what Open needs from a backend: chunk loads plus the
// dataset manifest. The provided stores (memory, local, s3, minio) all
// implement it.
type ReaderStore interface {
	chunkstore.Store
	GetManifest(ctx context.Context) ([]byte, error)
}

type readerOptions struct {
	cacheSize int64
	schedule  []int
	parallel  bool
	cacheOpts []trajcache.Option
}

// ReaderOption configures Open.
type ReaderOption func(*readerOptions)

// WithCacheSize sets the memory budget for resident chunks in bytes.
// The default is 64 MiB.
func WithCacheSize(bytes int64) ReaderOption {
	return func(o *readerOptions) {
		o.cacheSize = bytes
	}
}

// WithSchedule sets the planned frame access order. The default is one
// sequential pass over all frames. The schedule is fixed once reading
// starts; readers must then request frames in schedule order.
func WithSchedule(frames []int) ReaderOption {
	return func(o *readerOptions) {
		o.schedule = frames
	}
}

// WithParallel enables bounded-parallel loading of the initial cache fill.
func WithParallel() ReaderOption {
	return func(o *readerOptions) {
		o.parallel = true
	}
}

// WithCacheOptions forwards options to the underlying frame cache
// (logger, metrics, warm-fill concurrency).
func WithCacheOptions(opts ...trajcache.Option) ReaderOption {
	return func(o *readerOptions) {
		o.cacheOpts = append(o.cacheOpts, opts...)
	}
}

// Reader reads frames of a chunked trajectory dataset through a
// prefetching frame cache.
//
// Reader is single-consumer: one goroutine calls Next or ReadFrame at a
// time, and the Timestep it returns is reused by the following call.
type Reader struct {
	manifest  Manifest
	cache     *trajcache.AsyncCache
	schedule  []int
	installed bool
	pos       int
	ts        Timestep
}

// Open reads the dataset manifest from store and prepares a Reader.
// The prefetch worker starts lazily on the first frame read.
func Open(ctx context.Context, store ReaderStore, optFns ...ReaderOption) (*Reader, error) {
	o := readerOptions{cacheSize: 64 << 20}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	raw, err := store.GetManifest(ctx)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	manifest, err := UnmarshalManifest(raw)
	if err != nil {
		return nil, err
	}

	comp, ok := codec.ByName(manifest.Compression)
	if !ok {
		return nil, fmt.Errorf("unknown compression codec %q", manifest.Compression)
	}
	scheme, ok := trajcache.SchemeByName(manifest.Scheme, manifest.FramesPerChunk)
	if !ok {
		return nil, fmt.Errorf("unknown chunk scheme %q", manifest.Scheme)
	}

	schedule := o.schedule
	if schedule == nil {
		schedule = make([]int, manifest.NFrames)
		for i := range schedule {
			schedule[i] = i
		}
	}
	for _, f := range schedule {
		if f < 0 || f >= manifest.NFrames {
			return nil, fmt.Errorf("schedule frame %d outside trajectory of %d frames", f, manifest.NFrames)
		}
	}

	cacheOpts := append([]trajcache.Option{trajcache.WithChunkScheme(scheme)}, o.cacheOpts...)
	cache, err := trajcache.New(
		chunkstore.NewCompressedStore(store, comp),
		trajcache.Config{
			CacheSize:      o.cacheSize,
			FrameSize:      manifest.FrameSize(),
			FramesPerChunk: manifest.FramesPerChunk,
			Parallel:       o.parallel,
		},
		cacheOpts...,
	)
	if err != nil {
		return nil, err
	}

	return &Reader{
		manifest: manifest,
		cache:    cache,
		schedule: schedule,
	}, nil
}

// Manifest returns the dataset manifest.
func (r *Reader) Manifest() Manifest { return r.manifest }

// NFrames returns the number of frames in the trajectory.
func (r *Reader) NFrames() int { return r.manifest.NFrames }

// NAtoms returns the number of atoms per frame.
func (r *Reader) NAtoms() int { return r.manifest.NAtoms }

// Next reads the next frame of the schedule. It returns io.EOF when the
// schedule is exhausted. The returned Timestep is reused by the
// following Next or ReadFrame call.
func (r *Reader) Next(ctx context.Context) (*Timestep, error) {
	if r.pos >= len(r.schedule) {
		return nil, io.EOF
	}
	return r.ReadFrame(ctx, r.schedule[r.pos])
}

// ReadFrame materializes the given frame. The frame must be the next
// entry of the schedule the reader has not consumed yet; the cache
// rejects frames outside the remaining schedule.
func (r *Reader) ReadFrame(ctx context.Context, frame int) (*Timestep, error) {
	if err := r.ensureSequence(); err != nil {
		return nil, err
	}

	data, err := r.cache.GetFrame(ctx, frame)
	if err != nil {
		return nil, err
	}
	if err := decodeFrame(r.manifest, frame, data, &r.ts); err != nil {
		return nil, err
	}
	r.pos++
	return &r.ts, nil
}

func (r *Reader) ensureSequence() error {
	if r.installed {
		return nil
	}
	if err := r.cache.SetAccessSequence(r.schedule); err != nil {
		return err
	}
	r.installed = true
	return nil
}

// Cache exposes the underlying frame cache, mainly for stats in tests
// and tooling.
func (r *Reader) Cache() *trajcache.AsyncCache { return r.cache }

// Close tears down the prefetch worker and releases the cache.
// It is idempotent.
func (r *Reader) Close() error {
	return r.cache.Cleanup()
}
