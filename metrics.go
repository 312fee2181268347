package trajcache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/trajcache/chunkstore"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordChunkLoad is called after each chunk load performed by the
	// prefetch worker. err is nil if successful.
	RecordChunkLoad(key chunkstore.Key, duration time.Duration, err error)

	// RecordEviction is called after each eviction.
	RecordEviction(victim chunkstore.Key)

	// RecordFetch is called after each GetFrame call.
	// duration is the time the consumer spent blocked, err is nil if successful.
	RecordFetch(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordChunkLoad(chunkstore.Key, time.Duration, error) {}
func (NoopMetricsCollector) RecordEviction(chunkstore.Key)                        {}
func (NoopMetricsCollector) RecordFetch(time.Duration, error)                     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
//
// Distinct chunk accounting uses a roaring bitmap over chunk keys, so it
// stays cheap even for trajectories with millions of chunks.
type BasicMetricsCollector struct {
	LoadCount      atomic.Int64
	LoadErrors     atomic.Int64
	LoadTotalNanos atomic.Int64
	EvictionCount  atomic.Int64
	FetchCount     atomic.Int64
	FetchErrors    atomic.Int64
	FetchWaitNanos atomic.Int64

	mu     sync.Mutex
	loaded *roaring.Bitmap
}

// RecordChunkLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordChunkLoad(key chunkstore.Key, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}

	b.mu.Lock()
	if b.loaded == nil {
		b.loaded = roaring.New()
	}
	b.loaded.Add(uint32(key))
	b.mu.Unlock()
}

// RecordEviction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEviction(chunkstore.Key) {
	b.EvictionCount.Add(1)
}

// RecordFetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFetch(duration time.Duration, err error) {
	b.FetchCount.Add(1)
	b.FetchWaitNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FetchErrors.Add(1)
	}
}

// DistinctChunks returns the number of distinct chunks loaded so far.
func (b *BasicMetricsCollector) DistinctChunks() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded == nil {
		return 0
	}
	return b.loaded.GetCardinality()
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	stats := BasicMetricsStats{
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
		EvictionCount:  b.EvictionCount.Load(),
		FetchCount:     b.FetchCount.Load(),
		FetchErrors:    b.FetchErrors.Load(),
		DistinctChunks: b.DistinctChunks(),
	}
	if stats.LoadCount > 0 {
		stats.LoadAvgNanos = b.LoadTotalNanos.Load() / stats.LoadCount
	}
	if stats.FetchCount > 0 {
		stats.FetchAvgWaitNanos = b.FetchWaitNanos.Load() / stats.FetchCount
	}
	return stats
}

// BasicMetricsStats is a point-in-time snapshot of BasicMetricsCollector.
type BasicMetricsStats struct {
	LoadCount         int64
	LoadErrors        int64
	LoadAvgNanos      int64
	EvictionCount     int64
	FetchCount        int64
	FetchErrors       int64
	FetchAvgWaitNanos int64
	DistinctChunks    uint64
}
