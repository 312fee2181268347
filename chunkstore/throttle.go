package chunkstore

import (
	"context"

	"github.com/hupe1980/trajcache/resource"
)

// ThrottledStore applies a shared resource.Controller to an inner Store.
// Several caches reading from the same remote backend can share one
// controller to bound their combined load.
type ThrottledStore struct {
	inner Store
	ctrl  *resource.Controller
}

// NewThrottledStore creates a ThrottledStore.
// A nil controller disables throttling.
func NewThrottledStore(inner Store, ctrl *resource.Controller) *ThrottledStore {
	return &ThrottledStore{inner: inner, ctrl: ctrl}
}

// Load fetches the chunk for key within the controller's limits.
// The throughput charge is paid after the load, once the size is known.
func (s *ThrottledStore) Load(ctx context.Context, key Key) ([]byte, error) {
	if err := s.ctrl.AcquireLoad(ctx); err != nil {
		return nil, err
	}
	defer s.ctrl.ReleaseLoad()

	data, err := s.inner.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.ctrl.WaitBytes(ctx, len(data)); err != nil {
		return nil, err
	}
	return data, nil
}
