package chunkstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/trajcache/codec"
	"github.com/hupe1980/trajcache/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Load(ctx, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, 0, []byte("chunk zero")))
	data, err := store.Load(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("chunk zero"), data)

	// Returned slices are copies.
	data[0] = 'X'
	data2, err := store.Load(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("chunk zero"), data2)

	require.NoError(t, store.Delete(ctx, 0))
	_, err = store.Load(ctx, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreManifest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetManifest(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.PutManifest(ctx, []byte(`{"n_frames":5}`)))
	data, err := store.GetManifest(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n_frames":5}`, string(data))
}

func TestCompressedStore(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()

	comp := codec.NewZstd()
	payload := []byte("frame data frame data frame data")
	require.NoError(t, inner.Put(ctx, 3, codec.MustCompress(comp, payload)))

	store := NewCompressedStore(inner, comp)
	data, err := store.Load(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	_, err = store.Load(ctx, 4)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompressedStoreBadPayload(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	require.NoError(t, inner.Put(ctx, 0, []byte("not a zstd frame")))

	store := NewCompressedStore(inner, codec.NewZstd())
	_, err := store.Load(ctx, 0)
	assert.Error(t, err)
}

type funcStore func(ctx context.Context, key Key) ([]byte, error)

func (f funcStore) Load(ctx context.Context, key Key) ([]byte, error) {
	return f(ctx, key)
}

func TestLoadBatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for key := Key(0); key < 6; key++ {
		require.NoError(t, store.Put(ctx, key, []byte{byte(key)}))
	}

	loaded, err := LoadBatch(ctx, store, []Key{0, 2, 4}, 2)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, []byte{2}, loaded[2])
}

func TestLoadBatchRespectsLimit(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	var mu sync.Mutex

	store := funcStore(func(ctx context.Context, key Key) ([]byte, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)

		mu.Lock()
		if n > maxInFlight.Load() {
			maxInFlight.Store(n)
		}
		mu.Unlock()
		return []byte{byte(key)}, nil
	})

	keys := make([]Key, 32)
	for i := range keys {
		keys[i] = Key(i)
	}
	_, err := LoadBatch(context.Background(), store, keys, 3)
	require.NoError(t, err)
	assert.LessOrEqual(t, maxInFlight.Load(), int32(3))
}

func TestLoadBatchFailureCancels(t *testing.T) {
	boom := errors.New("backend down")
	store := funcStore(func(ctx context.Context, key Key) ([]byte, error) {
		if key == 1 {
			return nil, boom
		}
		return []byte{byte(key)}, nil
	})

	_, err := LoadBatch(context.Background(), store, []Key{0, 1, 2}, 2)
	assert.ErrorIs(t, err, boom)
}

func TestThrottledStore(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	require.NoError(t, inner.Put(ctx, 0, []byte("chunk")))

	// Nil controller is a passthrough.
	store := NewThrottledStore(inner, nil)
	data, err := store.Load(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("chunk"), data)

	ctrl := resource.NewController(resource.Config{MaxConcurrentLoads: 1})
	store = NewThrottledStore(inner, ctrl)
	data, err = store.Load(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("chunk"), data)

	_, err = store.Load(ctx, 9)
	assert.ErrorIs(t, err, ErrNotFound)
}
