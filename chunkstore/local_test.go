package chunkstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	_, err := store.Load(ctx, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, 0, []byte("chunk zero")))
	require.NoError(t, store.Put(ctx, 7, []byte("chunk seven")))

	data, err := store.Load(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("chunk zero"), data)

	data, err = store.Load(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []byte("chunk seven"), data)
}

func TestLocalStoreManifest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewLocalStore(dir)

	_, err := store.GetManifest(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.PutManifest(ctx, []byte(`{"n_atoms":3}`)))
	data, err := store.GetManifest(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n_atoms":3}`, string(data))

	_, err = os.Stat(filepath.Join(dir, "manifest.json"))
	require.NoError(t, err)
}

func TestLocalStorePutOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	require.NoError(t, store.Put(ctx, 1, []byte("old")))
	require.NoError(t, store.Put(ctx, 1, []byte("new contents")))

	data, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("new contents"), data)
}
