package rangecache

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gaissmai/bart"

	"ascache/internal/config"
	"ascache/internal/domain"
	"ascache/internal/store"
	"ascache/internal/upstream"
)

const resetMessage = "Cache reset and refreshed successfully"

// ErrNoData is returned when a cold cache could not be filled.
var ErrNoData = errors.New("no address ranges available")

type Options struct {
	ASN          uint32
	Sources      []upstream.Source
	Store        store.Interface
	TTL          time.Duration
	FetchTimeout time.Duration
	Renderer     Renderer
	Logger       *log.Logger
	Now          func() time.Time
}

// Cache owns the CacheState of one AS. Readers get copies; only the
// refresh path and Reset write to it. mu is never held across network or
// store I/O.
type Cache struct {
	asn          uint32
	sources      []upstream.Source
	states       *store.JSON[domain.CacheState]
	key          string
	ttl          time.Duration
	fetchTimeout time.Duration
	renderer     Renderer
	logger       *log.Logger
	now          func() time.Time

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// persistMu serializes store writes; it is taken before mu.
	persistMu sync.Mutex

	mu      sync.Mutex
	current domain.CacheState
	table   *bart.Table[netip.Prefix]
	done    chan struct{} // completion of the refresh that set UpdateInProgress
	metrics Metrics
}

// ResetResult is the outcome reported by Reset.
type ResetResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// New builds the cache and loads any persisted state.
func New(ctx context.Context, opts Options) (*Cache, error) {
	if opts.ASN == 0 {
		return nil, fmt.Errorf("rangecache: %w", config.ErrInvalidASN)
	}
	if len(opts.Sources) == 0 {
		return nil, errors.New("rangecache: at least one upstream source is required")
	}
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.TTL <= 0 {
		opts.TTL = config.DefaultTTL
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = config.DefaultFetchTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Renderer.ASN = opts.ASN

	baseCtx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		asn:          opts.ASN,
		sources:      opts.Sources,
		states:       &store.JSON[domain.CacheState]{Underlying: opts.Store, Prefix: "ascache:"},
		key:          fmt.Sprintf("AS%d:state", opts.ASN),
		ttl:          opts.TTL,
		fetchTimeout: opts.FetchTimeout,
		renderer:     opts.Renderer,
		logger:       opts.Logger.With("asn", opts.ASN),
		now:          opts.Now,
		baseCtx:      baseCtx,
		cancel:       cancel,
		table:        new(bart.Table[netip.Prefix]),
	}

	c.load(ctx)
	return c, nil
}

func (c *Cache) load(ctx context.Context) {
	state, err := c.states.Get(ctx, c.key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.logger.Debug("no persisted cache state, starting empty")
		return
	case err != nil:
		c.logger.Warn("failed to load persisted cache state, starting empty", "error", err)
		return
	}

	if state.UpdateInProgress {
		c.logger.Warn("persisted state was mid-refresh, clearing in-progress flag")
		state.UpdateInProgress = false
	}

	c.mu.Lock()
	c.current = state
	c.table = buildTable(state)
	c.mu.Unlock()

	c.logger.Info("loaded persisted cache state", "ipv4", len(state.IPv4Ranges), "ipv6", len(state.IPv6Ranges))
}

// Close stops background refreshes and waits for them to finish.
func (c *Cache) Close() {
	c.cancel()
	c.wg.Wait()
}

// Snapshot returns a copy of the current state.
func (c *Cache) Snapshot() domain.CacheState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Clone()
}

// GetScript renders the current ranges. A cold cache, or a stale one
// without any ranges, is refreshed synchronously; a stale cache with data
// is served as-is while a background refresh runs.
func (c *Cache) GetScript(ctx context.Context) (string, error) {
	c.mu.Lock()
	now := c.now()
	c.metrics.LastAccessed = &now
	refreshing := c.current.UpdateInProgress
	stale := c.current.IsStale(now, c.ttl)
	needSync := !refreshing && (c.current.IsEmpty() || (stale && !c.current.HasRanges()))
	needBackground := !refreshing && !needSync && stale
	if needSync {
		c.metrics.CacheMisses++
	} else {
		c.metrics.CacheHits++
	}
	c.mu.Unlock()

	switch {
	case needSync:
		if err := c.wait(ctx, c.startRefresh("cold")); err != nil {
			return "", err
		}
		state := c.Snapshot()
		if state.IsEmpty() {
			if state.LastError != nil {
				return "", fmt.Errorf("%w: %s", ErrNoData, *state.LastError)
			}
			return "", ErrNoData
		}
		return c.renderer.Render(state, c.now()), nil
	case needBackground:
		c.startRefresh("stale")
	}

	return c.renderer.Render(c.Snapshot(), c.now()), nil
}

// Reset clears the state, persists it and refreshes synchronously. When a
// refresh is already running Reset waits for it instead of starting another.
func (c *Cache) Reset(ctx context.Context) (ResetResult, error) {
	c.mu.Lock()
	now := c.now()
	cleared := domain.CacheState{UpdateInProgress: c.current.UpdateInProgress}
	if cleared.UpdateInProgress {
		cleared.LastAttempt = c.current.LastAttempt
	}
	c.current = cleared
	c.table = new(bart.Table[netip.Prefix])
	c.metrics.ResetCount++
	c.metrics.LastReset = &now
	c.mu.Unlock()

	if err := c.clearPersisted(ctx); err != nil {
		c.logger.Warn("failed to persist cleared cache state", "error", err)
	}
	c.logger.Info("cache reset")

	if err := c.wait(ctx, c.startRefresh("reset")); err != nil {
		return ResetResult{Success: false, Message: err.Error()}, err
	}

	state := c.Snapshot()
	if state.LastError != nil {
		return ResetResult{Success: false, Message: *state.LastError}, nil
	}
	return ResetResult{Success: true, Message: resetMessage}, nil
}

// Lookup returns the cached prefix covering addr.
func (c *Cache) Lookup(addr netip.Addr) (netip.Prefix, bool) {
	c.mu.Lock()
	table := c.table
	c.mu.Unlock()
	return table.Lookup(addr.Unmap())
}

func (c *Cache) wait(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// persistLatest writes the state as it is once the store is free, so the
// last completed write always matches memory.
func (c *Cache) persistLatest(ctx context.Context) error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	state := c.current.Clone()
	c.mu.Unlock()

	return c.states.Set(ctx, c.key, state)
}

// clearPersisted drops the stored record before writing the cleared state,
// so a failed write cannot leave the pre-reset ranges behind.
func (c *Cache) clearPersisted(ctx context.Context) error {
	c.persistMu.Lock()
	err := c.states.Delete(ctx, c.key)
	c.persistMu.Unlock()
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		c.logger.Warn("failed to delete persisted cache state", "error", err)
	}
	return c.persistLatest(ctx)
}

func buildTable(state domain.CacheState) *bart.Table[netip.Prefix] {
	table := new(bart.Table[netip.Prefix])
	for _, p := range state.IPv4Ranges {
		table.Insert(p, p)
	}
	for _, p := range state.IPv6Ranges {
		table.Insert(p, p)
	}
	return table
}
