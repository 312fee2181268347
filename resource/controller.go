// Package resource provides shared limits for chunk loading.
//
// Remote chunk stores can easily saturate a link or trip rate limits when
// the prefetch worker runs far ahead of the consumer. A Controller caps
// concurrent loads and total load throughput for everything that shares it.
package resource

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds load limits.
type Config struct {
	// MaxConcurrentLoads is the maximum number of chunk loads in flight.
	// If 0, defaults to 1.
	MaxConcurrentLoads int64

	// LoadLimitBytesPerSec is the maximum chunk load throughput.
	// If 0, unlimited.
	LoadLimitBytesPerSec int64
}

// Controller manages load concurrency and throughput.
// A nil *Controller is valid and applies no limits.
type Controller struct {
	loadSem *semaphore.Weighted
	limiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentLoads <= 0 {
		cfg.MaxConcurrentLoads = 1
	}

	c := &Controller{
		loadSem: semaphore.NewWeighted(cfg.MaxConcurrentLoads),
	}
	if cfg.LoadLimitBytesPerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.LoadLimitBytesPerSec), int(cfg.LoadLimitBytesPerSec))
	}
	return c
}

// AcquireLoad blocks until a load slot is free or ctx is done.
func (c *Controller) AcquireLoad(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.loadSem.Acquire(ctx, 1)
}

// ReleaseLoad returns a load slot.
func (c *Controller) ReleaseLoad() {
	if c == nil {
		return
	}
	c.loadSem.Release(1)
}

// WaitBytes blocks until the throughput budget allows n more bytes.
func (c *Controller) WaitBytes(ctx context.Context, n int) error {
	if c == nil || c.limiter == nil || n <= 0 {
		return nil
	}
	burst := c.limiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := c.limiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
