package chunkstore

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// LoadBatch fetches several chunks concurrently and returns them keyed by
// chunk. limit caps in-flight loads; if limit <= 0 it defaults to 4.
// The first load error cancels the remaining loads.
func LoadBatch(ctx context.Context, store Store, keys []Key, limit int) (map[Key][]byte, error) {
	if limit <= 0 {
		limit = 4
	}

	results := make([][]byte, len(keys))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			data, err := store.Load(ctx, key)
			if err != nil {
				return err
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[Key][]byte, len(keys))
	for i, key := range keys {
		out[key] = results[i]
	}
	return out, nil
}
