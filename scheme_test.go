package trajcache

import (
	"testing"

	"github.com/hupe1980/trajcache/chunkstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockedScheme(t *testing.T) {
	s := Blocked{FramesPerChunk: 4}

	tests := []struct {
		frame  int
		key    chunkstore.Key
		offset int
	}{
		{0, 0, 0},
		{3, 0, 3},
		{4, 1, 0},
		{7, 1, 3},
		{12, 3, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.key, s.KeyFor(tt.frame), "frame %d key", tt.frame)
		assert.Equal(t, tt.offset, s.FrameOffset(tt.frame), "frame %d offset", tt.frame)
	}
}

func TestInterleavedScheme(t *testing.T) {
	s := Interleaved{FramesPerChunk: 4}

	tests := []struct {
		frame  int
		key    chunkstore.Key
		offset int
	}{
		{0, 0, 0},
		{3, 3, 0},
		{4, 0, 1},
		{7, 3, 1},
		{9, 1, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.key, s.KeyFor(tt.frame), "frame %d key", tt.frame)
		assert.Equal(t, tt.offset, s.FrameOffset(tt.frame), "frame %d offset", tt.frame)
	}
}

func TestInterleavedAliasesAcrossCycles(t *testing.T) {
	// Frames one full cycle apart share a chunk under the interleaved
	// mapping; that aliasing is the reason Blocked is the default.
	s := Interleaved{FramesPerChunk: 4}
	assert.Equal(t, s.KeyFor(0), s.KeyFor(4))

	b := Blocked{FramesPerChunk: 4}
	assert.NotEqual(t, b.KeyFor(0), b.KeyFor(4))
}

func TestSchemeByName(t *testing.T) {
	s, ok := SchemeByName("", 8)
	require.True(t, ok)
	assert.Equal(t, "blocked", s.Name())

	s, ok = SchemeByName("interleaved", 8)
	require.True(t, ok)
	assert.Equal(t, "interleaved", s.Name())

	_, ok = SchemeByName("striped", 8)
	assert.False(t, ok)
}
