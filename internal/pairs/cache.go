package pairs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"swapScope/internal/model"
	"swapScope/internal/storage"
)

// FetchFunc retrieves the current pool list from the upstream indexer.
type FetchFunc func(ctx context.Context) ([]model.Pool, error)

// snapshot couples a built graph with the pool list it came from.
type snapshot struct {
	graph     Graph
	pools     []model.Pool
	fetchedAt time.Time
}

// Cache serves the pair graph with a TTL. Within the TTL window the cached
// graph is returned directly; concurrent refreshes share one in-flight
// fetch. On fetch failure the last good snapshot is served when present,
// falling back to the persistent store before giving up.
type Cache struct {
	fetch   FetchFunc
	build   BuildConfig
	ttl     time.Duration
	chainID uint64
	store   storage.SnapshotStore
	logger  *zap.Logger

	now   func() time.Time
	group singleflight.Group

	mu   sync.RWMutex
	snap *snapshot
}

// CacheConfig holds Cache construction parameters.
type CacheConfig struct {
	TTL     time.Duration
	ChainID uint64
	Build   BuildConfig

	// Store is an optional persistent snapshot store used as the fallback
	// of last resort and written through on every successful fetch.
	Store storage.SnapshotStore
}

func NewCache(fetch FetchFunc, cfg CacheConfig, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		fetch:   fetch,
		build:   cfg.Build,
		ttl:     ttl,
		chainID: cfg.ChainID,
		store:   cfg.Store,
		logger:  logger,
		now:     time.Now,
	}
}

// Graph returns the current pair graph, refreshing from the indexer when
// the cached snapshot is older than the TTL.
func (c *Cache) Graph(ctx context.Context) (Graph, error) {
	snap, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	return snap.graph, nil
}

// Pools returns the pool list backing the current graph.
func (c *Cache) Pools(ctx context.Context) ([]model.Pool, error) {
	snap, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	return snap.pools, nil
}

// CanSwap reports whether a direct pool exists between the two tokens in
// the current graph.
func (c *Cache) CanSwap(ctx context.Context, tokenIn, tokenOut string) (bool, error) {
	graph, err := c.Graph(ctx)
	if err != nil {
		return false, err
	}
	return graph.CanSwap(tokenIn, tokenOut), nil
}

func (c *Cache) current(ctx context.Context) (*snapshot, error) {
	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()

	if snap != nil && c.now().Sub(snap.fetchedAt) < c.ttl {
		return snap, nil
	}

	refreshed, err, _ := c.group.Do("pools", func() (interface{}, error) {
		// A concurrent caller may have refreshed while we waited on the
		// flight group.
		c.mu.RLock()
		latest := c.snap
		c.mu.RUnlock()
		if latest != nil && c.now().Sub(latest.fetchedAt) < c.ttl {
			return latest, nil
		}
		return c.refresh(ctx)
	})
	if err == nil {
		return refreshed.(*snapshot), nil
	}

	// Degrade to the stale in-memory snapshot when the fetch fails.
	if snap != nil {
		c.logger.Warn("pool fetch failed, serving stale snapshot",
			zap.Time("fetched_at", snap.fetchedAt),
			zap.Error(err),
		)
		return snap, nil
	}

	// Last resort: the persisted snapshot from a previous run.
	if c.store != nil {
		stored, storeErr := c.store.LatestSnapshot(ctx, c.chainID)
		if storeErr == nil {
			restored := &snapshot{
				graph:     Build(stored.Pools, c.build),
				pools:     stored.Pools,
				fetchedAt: stored.FetchedAt,
			}
			c.mu.Lock()
			c.snap = restored
			c.mu.Unlock()
			c.logger.Warn("pool fetch failed, restored persisted snapshot",
				zap.Time("fetched_at", stored.FetchedAt),
				zap.Error(err),
			)
			return restored, nil
		}
		c.logger.Warn("persisted snapshot unavailable", zap.Error(storeErr))
	}

	return nil, err
}

func (c *Cache) refresh(ctx context.Context) (*snapshot, error) {
	pools, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	snap := &snapshot{
		graph:     Build(pools, c.build),
		pools:     pools,
		fetchedAt: c.now(),
	}

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SaveSnapshot(ctx, model.PoolSnapshot{
			ChainID:   c.chainID,
			FetchedAt: snap.fetchedAt,
			Pools:     pools,
		}); err != nil {
			c.logger.Warn("persist snapshot failed", zap.Error(err))
		}
	}

	c.logger.Debug("pool snapshot refreshed",
		zap.Int("pools", len(pools)),
		zap.Int("tokens", len(snap.graph)),
	)
	return snap, nil
}

// Invalidate drops the in-memory snapshot, forcing the next call to fetch.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

func (c *Cache) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return "pairs.Cache(empty)"
	}
	return fmt.Sprintf("pairs.Cache(%d tokens, fetched %s)", len(c.snap.graph), c.snap.fetchedAt.Format(time.RFC3339))
}
