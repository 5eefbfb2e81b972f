package rangecache

import (
	"context"
	"time"
)

// StartWarmRoutine triggers a background refresh on every tick while the
// cache is stale, so readers rarely see old data. It blocks until ctx is
// done; a non-positive interval returns immediately.
func (c *Cache) StartWarmRoutine(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Info("warm-up routine started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.baseCtx.Done():
			return
		case <-ticker.C:
			c.warm()
		}
	}
}

// warm starts a refresh when the state is stale and idle.
func (c *Cache) warm() bool {
	c.mu.Lock()
	due := !c.current.UpdateInProgress && c.current.IsStale(c.now(), c.ttl)
	c.mu.Unlock()

	if !due {
		return false
	}
	c.startRefresh("scheduled")
	return true
}
