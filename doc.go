// Package trajcache implements a prefetching frame cache for
// chunk-organized sequential-access trajectory data.
//
// Simulation trajectories are stored as equally sized chunks of frames,
// often on slow or remote storage (see the chunkstore subpackages). A
// reader that knows its full frame access order up front installs that
// sequence once; a background worker then prefetches chunks ahead of
// demand and, when the cache is full, evicts the chunk whose next use
// lies farthest in the future (Belady's MIN). With the whole future
// known, that choice is optimal: no heuristic policy produces fewer
// misses.
//
// The engine is AsyncCache. Consumers block in GetFrame until the
// worker makes the frame's chunk resident:
//
//	cache, _ := trajcache.New(store, trajcache.Config{
//		CacheSize:      64 << 20,
//		FrameSize:      frameSize,
//		FramesPerChunk: 50,
//	})
//	defer cache.Cleanup()
//
//	_ = cache.SetAccessSequence(seq)
//	for _, f := range seq {
//		data, err := cache.GetFrame(ctx, f)
//		// data is valid until the next GetFrame call
//	}
//
// The traj subpackage builds a trajectory reader on top of this engine.
package trajcache
