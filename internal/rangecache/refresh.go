package rangecache

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"ascache/internal/cidr"
	"ascache/internal/domain"
	"ascache/internal/upstream"
)

// startRefresh begins a refresh unless one is already running. Either way
// it returns a channel closed when the running refresh has committed.
func (c *Cache) startRefresh(reason string) <-chan struct{} {
	c.mu.Lock()
	if c.current.UpdateInProgress {
		done := c.done
		c.mu.Unlock()
		c.logger.Debug("refresh already in progress", "reason", reason)
		return done
	}
	started := c.now()
	c.current.UpdateInProgress = true
	c.current.LastAttempt = &started
	done := make(chan struct{})
	c.done = done
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(done)
		c.runRefresh(reason, done)
	}()
	return done
}

func (c *Cache) runRefresh(reason string, done chan struct{}) {
	ctx := c.baseCtx
	committed := false
	defer func() {
		if !committed {
			c.release(done)
		}
	}()

	if err := c.persistLatest(ctx); err != nil {
		c.logger.Warn("failed to persist refresh start", "error", err)
	}

	v4, v6, err := c.collect(ctx)
	c.commit(ctx, done, reason, v4, v6, err)
	committed = true
}

// release clears the in-progress guard without touching the data.
func (c *Cache) release(done chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == done {
		c.current.UpdateInProgress = false
		c.done = nil
	}
}

// collect fetches every source concurrently and aggregates whatever
// succeeded. It fails only when every source failed.
func (c *Cache) collect(ctx context.Context) (v4, v6 []netip.Prefix, err error) {
	defer func() {
		if r := recover(); r != nil {
			v4, v6 = nil, nil
			err = fmt.Errorf("aggregation panicked: %v", r)
		}
	}()

	results := make([][]string, len(c.sources))
	errs := make([]error, len(c.sources))

	var g errgroup.Group
	for i, src := range c.sources {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
			defer cancel()

			raw, fetchErr := safeFetch(fetchCtx, src, c.asn)
			if fetchErr != nil {
				c.logger.Warn("source fetch failed", "source", src.Name(), "error", fetchErr)
				errs[i] = fmt.Errorf("%s: %w", src.Name(), fetchErr)
				return nil
			}
			c.logger.Debug("source fetched", "source", src.Name(), "prefixes", len(raw))
			results[i] = raw
			return nil
		})
	}
	_ = g.Wait()

	var (
		raw       []string
		succeeded int
	)
	for i := range c.sources {
		if errs[i] != nil {
			continue
		}
		succeeded++
		raw = append(raw, results[i]...)
	}
	if succeeded == 0 {
		return nil, nil, fmt.Errorf("all sources failed: %w", errors.Join(errs...))
	}

	parsed4, parsed6, dropped := cidr.ParseAll(raw)
	for _, s := range dropped {
		c.logger.Debug("dropping malformed prefix", "prefix", s)
	}
	return cidr.Aggregate(parsed4, cidr.IPv4), cidr.Aggregate(parsed6, cidr.IPv6), nil
}

func safeFetch(ctx context.Context, src upstream.Source, asn uint32) (raw []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			raw, err = nil, fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	return src.Fetch(ctx, asn)
}

// commit publishes the refresh outcome, persists the resulting state and
// releases the guard. On failure the ranges are left untouched.
func (c *Cache) commit(ctx context.Context, done chan struct{}, reason string, v4, v6 []netip.Prefix, refreshErr error) {
	now := c.now()

	if refreshErr != nil {
		c.logger.Error("cache refresh failed", "reason", reason, "error", refreshErr)
	} else {
		c.logger.Info("cache refreshed", "reason", reason, "ipv4", len(v4), "ipv6", len(v6))
	}

	// Reset may have cleared the state meanwhile; the outcome is applied to
	// whatever is current.
	c.mu.Lock()
	applyOutcome(&c.current, now, v4, v6, refreshErr)
	if refreshErr == nil {
		c.table = buildTable(c.current)
		c.metrics.RefreshCount++
	}
	c.mu.Unlock()

	persistErr := c.persistLatest(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if persistErr != nil {
		c.logger.Error("failed to persist cache state", "error", persistErr)
		if refreshErr == nil {
			msg := fmt.Sprintf("persist cache state: %v", persistErr)
			c.current.LastError = &msg
		}
	}
	if c.done == done {
		c.done = nil
	}
}

func applyOutcome(s *domain.CacheState, now time.Time, v4, v6 []netip.Prefix, refreshErr error) {
	if refreshErr == nil {
		updated := now
		s.IPv4Ranges = slices.Clone(v4)
		s.IPv6Ranges = slices.Clone(v6)
		s.LastUpdated = &updated
		s.LastError = nil
	} else {
		msg := refreshErr.Error()
		s.LastError = &msg
	}
	s.UpdateInProgress = false
}
