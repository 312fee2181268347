package trajcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/trajcache/chunkstore"
)

// AsyncCache is the concrete FrameCache engine.
//
// One background worker walks the access sequence ahead of consumer
// demand, loading chunks and evicting via PredictVictim when the cache
// is full. Consumers rendezvous with the worker through a condition
// variable: GetFrame blocks until the requested frame's chunk is
// resident, the worker fails, or the cache is torn down.
//
// The worker is started lazily on the first GetFrame call and runs
// through the states Idle -> Running -> Stopped; there is no way back
// from Stopped.
type AsyncCache struct {
	cfg       Config
	store     chunkstore.Store
	scheme    ChunkScheme
	logger    *Logger
	metrics   MetricsCollector
	maxChunks int
	batchSize int

	mu   sync.Mutex
	cond *sync.Cond

	// seq and keys are immutable once SetAccessSequence returns.
	// workerPos and readerPos are two independent cursors over seq:
	// the worker runs ahead, the reader can never pass a frame whose
	// chunk is not resident.
	seq       []int
	keys      []chunkstore.Key
	workerPos int
	readerPos int

	// chunks holds resident chunk contents; resident mirrors its key
	// set in insertion order, which fixes the predictor's scan order.
	chunks   map[chunkstore.Key][]byte
	resident []chunkstore.Key

	started  bool
	finished bool
	closed   bool
	loadErr  error

	loads     int64
	evictions int64

	ctx    context.Context
	cancel context.CancelFunc
	stop   chan struct{}
	done   chan struct{}
}

var _ FrameCache = (*AsyncCache)(nil)

// New creates an AsyncCache reading chunks from store.
func New(store chunkstore.Store, cfg Config, optFns ...Option) (*AsyncCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := applyOptions(optFns)
	if o.scheme == nil {
		o.scheme = Blocked{FramesPerChunk: cfg.FramesPerChunk}
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &AsyncCache{
		cfg:       cfg,
		store:     store,
		scheme:    o.scheme,
		logger:    o.logger,
		metrics:   o.metrics,
		maxChunks: cfg.MaxCachedChunks(),
		batchSize: o.batchSize,
		chunks:    make(map[chunkstore.Key][]byte),
		ctx:       ctx,
		cancel:    cancel,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)
	return c, nil
}

// SetAccessSequence installs the full planned frame order.
func (c *AsyncCache) SetAccessSequence(seq []int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.seq != nil {
		return ErrAlreadyConfigured
	}
	for i, frame := range seq {
		if frame < 0 {
			return fmt.Errorf("access sequence entry %d: negative frame %d", i, frame)
		}
	}

	c.seq = make([]int, len(seq))
	copy(c.seq, seq)

	c.keys = make([]chunkstore.Key, len(seq))
	for i, frame := range c.seq {
		c.keys[i] = c.scheme.KeyFor(frame)
	}
	return nil
}

// GetFrame blocks until frame's chunk is resident and returns the frame
// bytes. The slice is valid until the caller's next GetFrame call.
func (c *AsyncCache) GetFrame(ctx context.Context, frame int) ([]byte, error) {
	start := time.Now()
	data, err := c.getFrame(ctx, frame)
	c.metrics.RecordFetch(time.Since(start), err)
	return data, err
}

func (c *AsyncCache) getFrame(ctx context.Context, frame int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.seq == nil {
		return nil, ErrNotConfigured
	}
	if !c.scheduledLocked(frame) {
		return nil, fmt.Errorf("frame %d: %w", frame, ErrFrameNotScheduled)
	}

	if !c.started {
		c.started = true
		go c.run()
	}

	// A cond var cannot watch a context; bridge the two by waking all
	// waiters when ctx fires and re-checking ctx.Err in the loop.
	if ctx.Done() != nil {
		unwatch := make(chan struct{})
		defer close(unwatch)
		go func() {
			select {
			case <-ctx.Done():
				c.cond.Broadcast()
			case <-unwatch:
			}
		}()
	}

	key := c.scheme.KeyFor(frame)
	for {
		// The engine context is only canceled by Cleanup; treat it as
		// closed even before the flag lands.
		if c.closed || c.ctx.Err() != nil {
			return nil, ErrClosed
		}
		if data, ok := c.chunks[key]; ok {
			return c.frameViewLocked(data, frame, key)
		}
		if c.loadErr != nil {
			return nil, fmt.Errorf("frame %d: %w", frame, c.loadErr)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.finished {
			// The worker has passed this frame's position and its chunk
			// was evicted. Re-requesting consumed frames is a usage
			// error; fail instead of blocking forever.
			return nil, fmt.Errorf("frame %d: chunk %d not resident after worker finished: %w",
				frame, key, ErrFrameNotScheduled)
		}
		c.cond.Wait()
	}
}

// scheduledLocked reports whether frame appears in the remaining reader
// queue.
func (c *AsyncCache) scheduledLocked(frame int) bool {
	for _, f := range c.seq[c.readerPos:] {
		if f == frame {
			return true
		}
	}
	return false
}

// frameViewLocked slices the frame's bytes out of its resident chunk and
// pops the satisfied entry from the reader queue.
func (c *AsyncCache) frameViewLocked(chunk []byte, frame int, key chunkstore.Key) ([]byte, error) {
	off := int64(c.scheme.FrameOffset(frame)) * c.cfg.FrameSize
	end := off + c.cfg.FrameSize
	if end > int64(len(chunk)) {
		return nil, fmt.Errorf("frame %d: chunk %d holds %d bytes, frame ends at %d",
			frame, key, len(chunk), end)
	}
	c.readerPos++
	// The worker may be waiting for the reader to drain entries that
	// reference its eviction victim.
	c.cond.Broadcast()
	return chunk[off:end:end], nil
}

// run is the prefetch worker. It processes the access sequence strictly
// in order, skipping entries whose chunks are already resident.
func (c *AsyncCache) run() {
	defer func() {
		c.mu.Lock()
		c.finished = true
		c.cond.Broadcast()
		c.mu.Unlock()
		close(c.done)
	}()

	c.logger.Debug("prefetch worker started",
		"entries", len(c.seq),
		"max_chunks", c.maxChunks,
		"scheme", c.scheme.Name(),
	)

	if c.cfg.Parallel {
		if !c.warmFill() {
			return
		}
	}

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		c.mu.Lock()
		if c.closed || c.workerPos >= len(c.seq) {
			c.mu.Unlock()
			return
		}
		key := c.keys[c.workerPos]
		c.workerPos++

		if _, ok := c.chunks[key]; ok {
			// Already resident: coalesce.
			c.mu.Unlock()
			continue
		}

		if len(c.chunks) < c.maxChunks {
			// Spare capacity: load outside the lock so consumers can
			// keep reading resident chunks meanwhile.
			c.mu.Unlock()
			data, err := c.load(key)
			c.mu.Lock()
			if err != nil {
				c.failLocked(key, err)
				c.mu.Unlock()
				return
			}
			c.insertLocked(key, data)
			c.cond.Broadcast()
			c.mu.Unlock()
			continue
		}

		// Full: evict, load and insert as one critical section so no
		// reader ever observes a partially evicted cache.
		//
		// The victim may still be needed by entries the reader has not
		// consumed yet but the worker has already passed; evicting it
		// would strand the reader on a chunk nothing will reload. Wait
		// for the reader to drain those entries first (every chunk they
		// reference is resident, so the reader cannot stall).
		victim := c.resident[PredictVictim(c.resident, c.keys[c.workerPos:])]
		for c.victimPendingLocked(victim) {
			c.cond.Wait()
			if c.closed {
				c.mu.Unlock()
				return
			}
			victim = c.resident[PredictVictim(c.resident, c.keys[c.workerPos:])]
		}
		c.evictLocked(victim)
		c.logger.LogEviction(victim, key, len(c.chunks))

		data, err := c.load(key)
		if err != nil {
			c.failLocked(key, err)
			c.mu.Unlock()
			return
		}
		c.insertLocked(key, data)
		c.cond.Broadcast()
		c.mu.Unlock()
	}
}

// warmFill loads the first distinct chunks of the sequence concurrently,
// up to capacity. Reports whether the worker should continue.
func (c *AsyncCache) warmFill() bool {
	c.mu.Lock()
	seen := make(map[chunkstore.Key]struct{}, c.maxChunks)
	var keys []chunkstore.Key
	for _, key := range c.keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
		if len(keys) == c.maxChunks {
			break
		}
	}
	c.mu.Unlock()

	if len(keys) == 0 {
		return true
	}

	start := time.Now()
	loaded, err := chunkstore.LoadBatch(c.ctx, c.store, keys, c.batchSize)
	duration := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		// Attribute the failure to the batch's first key; the worker
		// stops either way.
		c.metrics.RecordChunkLoad(keys[0], duration, err)
		c.failLocked(keys[0], err)
		return false
	}
	for _, key := range keys {
		c.metrics.RecordChunkLoad(key, duration/time.Duration(len(keys)), nil)
		c.insertLocked(key, loaded[key])
	}
	c.cond.Broadcast()
	return true
}

// load fetches one chunk from the store. Called without the lock held on
// the spare-capacity path, with it held on the eviction path.
func (c *AsyncCache) load(key chunkstore.Key) ([]byte, error) {
	start := time.Now()
	data, err := c.store.Load(c.ctx, key)
	duration := time.Since(start)

	c.metrics.RecordChunkLoad(key, duration, err)
	c.logger.LogChunkLoad(key, len(data), duration, err)
	return data, err
}

// victimPendingLocked reports whether victim is referenced by an entry
// the worker has passed but the reader has not consumed yet. The current
// worker entry is excluded; it references the incoming chunk.
func (c *AsyncCache) victimPendingLocked(victim chunkstore.Key) bool {
	lo, hi := c.readerPos, c.workerPos-1
	if hi < lo {
		return false
	}
	for _, key := range c.keys[lo:hi] {
		if key == victim {
			return true
		}
	}
	return false
}

func (c *AsyncCache) insertLocked(key chunkstore.Key, data []byte) {
	c.chunks[key] = data
	c.resident = append(c.resident, key)
	c.loads++
}

func (c *AsyncCache) evictLocked(victim chunkstore.Key) {
	delete(c.chunks, victim)
	for i, key := range c.resident {
		if key == victim {
			c.resident = append(c.resident[:i], c.resident[i+1:]...)
			break
		}
	}
	c.evictions++
	c.metrics.RecordEviction(victim)
}

// failLocked records a fatal load failure and wakes every waiter.
// Loads aborted by teardown are not failures; the closed flag already
// resolves those waiters.
func (c *AsyncCache) failLocked(key chunkstore.Key, err error) {
	if c.closed || c.loadErr != nil || errors.Is(err, context.Canceled) {
		return
	}
	c.loadErr = &LoadError{Key: key, cause: err}
	c.cond.Broadcast()
}

// ResidentChunks returns the number of chunks currently resident.
func (c *AsyncCache) ResidentChunks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.chunks)
}

// Cleanup stops the worker and releases all cache storage. It is
// idempotent; blocked consumers are woken with ErrClosed.
func (c *AsyncCache) Cleanup() error {
	// Cancel first so a worker blocked in a slow load under the lock
	// unwinds before we acquire it.
	c.cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	started := c.started
	close(c.stop)
	c.cond.Broadcast()
	c.mu.Unlock()

	if started {
		<-c.done
	}

	c.mu.Lock()
	loads, evictions := c.loads, c.evictions
	c.chunks = nil
	c.resident = nil
	c.mu.Unlock()

	c.logger.LogCleanup(loads, evictions)
	return nil
}
