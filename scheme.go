package trajcache

import "github.com/hupe1980/trajcache/chunkstore"

// ChunkScheme maps frame indices to chunk keys and to offsets within a
// chunk. The scheme is pluggable because two layouts exist in the wild:
// blocked datasets store consecutive frames in one chunk, interleaved
// datasets stride frames across a fixed set of chunks.
type ChunkScheme interface {
	// KeyFor returns the chunk holding frame.
	KeyFor(frame int) chunkstore.Key
	// FrameOffset returns the frame's position within its chunk,
	// in frames.
	FrameOffset(frame int) int
	// Name returns the stable scheme name.
	Name() string
}

// Blocked groups consecutive frames: frames [0, n) land in chunk 0,
// [n, 2n) in chunk 1, and so on. This is the layout chunked trajectory
// formats write and the default for new caches.
type Blocked struct {
	FramesPerChunk int
}

func (s Blocked) KeyFor(frame int) chunkstore.Key {
	return chunkstore.Key(frame / s.FramesPerChunk)
}

func (s Blocked) FrameOffset(frame int) int {
	return frame % s.FramesPerChunk
}

func (s Blocked) Name() string { return "blocked" }

// Interleaved strides frames across a fixed set of chunks: frame f lands
// in chunk f mod n, at position f div n. Frames one whole cycle apart
// share a chunk, so the key space is bounded by FramesPerChunk.
type Interleaved struct {
	FramesPerChunk int
}

func (s Interleaved) KeyFor(frame int) chunkstore.Key {
	return chunkstore.Key(frame % s.FramesPerChunk)
}

func (s Interleaved) FrameOffset(frame int) int {
	return frame / s.FramesPerChunk
}

func (s Interleaved) Name() string { return "interleaved" }

// SchemeByName returns a built-in scheme by its stable name.
func SchemeByName(name string, framesPerChunk int) (ChunkScheme, bool) {
	switch name {
	case "", "blocked":
		return Blocked{FramesPerChunk: framesPerChunk}, true
	case "interleaved":
		return Interleaved{FramesPerChunk: framesPerChunk}, true
	default:
		return nil, false
	}
}
