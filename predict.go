package trajcache

import "github.com/hupe1980/trajcache/chunkstore"

// PredictVictim selects the resident chunk to evict, given the remaining
// future chunk references, and returns its index within resident.
//
// This is Belady's MIN policy: a chunk that is never referenced again is
// returned as soon as it is encountered; otherwise the chunk whose next
// reference lies farthest in the future wins. Ties keep the earliest
// scanned chunk (strict greater-than on the running maximum). With the
// full future known this minimizes total misses.
//
// The scan is O(len(resident) * len(future)). Evictions are rare relative
// to frame reads, so the direct form is kept; any precomputed variant
// must produce identical victims, tie-breaks included.
func PredictVictim(resident, future []chunkstore.Key) int {
	res := -1
	farthest := -1

	for i, key := range resident {
		next := -1
		for j, ref := range future {
			if ref == key {
				next = j
				break
			}
		}
		if next == -1 {
			// Never referenced again: immediate win.
			return i
		}
		if next > farthest {
			farthest = next
			res = i
		}
	}

	if res == -1 {
		return 0
	}
	return res
}
