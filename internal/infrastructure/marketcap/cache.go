package marketcap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/fundscreen/fundscreen/internal/domain"
	"github.com/fundscreen/fundscreen/internal/infrastructure/httpx"
	"github.com/fundscreen/fundscreen/internal/metrics"
)

// Index maps an upper-cased base-asset symbol to its market-cap entry. A
// built index is treated as immutable and may be shared between requests.
type Index map[string]domain.MarketCapEntry

// WarmStore mirrors successfully built indexes to external storage so a cold
// process whose first build fails can still serve data. Implementations are
// best-effort; errors are logged, never surfaced.
type WarmStore interface {
	Load(ctx context.Context, key string) (Index, error)
	Save(ctx context.Context, key string, idx Index) error
}

// CacheConfig configures the index cache.
type CacheConfig struct {
	Pages       int
	PerPage     int
	TTL         time.Duration
	MaxAttempts int
	BackoffBase time.Duration
}

// Cache owns the market-cap index: it builds the index from an IndexSource
// across paginated fetches, caches it per (pages, perPage) key with a TTL,
// coalesces concurrent rebuilds of the same key into a single in-flight
// build, and serves the last good value when a rebuild fails. GetIndex never
// returns an error: a build that fails with nothing to fall back on degrades
// to an empty index and downstream policy decides what unknown market caps
// mean.
type Cache struct {
	source  IndexSource
	store   WarmStore
	cfg     CacheConfig
	now     func() time.Time
	log     zerolog.Logger
	metrics *metrics.Registry

	group   singleflight.Group
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	index     Index
	expiresAt time.Time
}

// NewCache creates the cache. store and reg may be nil; now defaults to
// time.Now.
func NewCache(source IndexSource, store WarmStore, cfg CacheConfig, now func() time.Time, log zerolog.Logger, reg *metrics.Registry) *Cache {
	if cfg.Pages <= 0 {
		cfg.Pages = 1
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = 250
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if now == nil {
		now = time.Now
	}

	return &Cache{
		source:  source,
		store:   store,
		cfg:     cfg,
		now:     now,
		log:     log.With().Str("component", "marketcap_cache").Logger(),
		metrics: reg,
		entries: make(map[string]*cacheEntry),
	}
}

func (c *Cache) key() string {
	return fmt.Sprintf("symidx:%d:%d", c.cfg.Pages, c.cfg.PerPage)
}

// GetIndex returns the current market-cap index, rebuilding it when the
// cached value has expired. It never returns an error.
func (c *Cache) GetIndex(ctx context.Context) Index {
	key := c.key()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Before(e.expiresAt) {
		c.mu.Unlock()
		c.metrics.RecordCacheHit("fresh")
		return e.index
	}
	c.mu.Unlock()

	// Concurrent misses on the same key share one build.
	result, _, _ := c.group.Do(key, func() (interface{}, error) {
		return c.rebuild(ctx, key), nil
	})
	return result.(Index)
}

// rebuild runs under singleflight: exactly one goroutine per key executes it
// at a time.
func (c *Cache) rebuild(ctx context.Context, key string) Index {
	// A waiter that piled up behind a finished build sees the fresh value.
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Before(e.expiresAt) {
		c.mu.Unlock()
		c.metrics.RecordCacheHit("fresh")
		return e.index
	}
	c.mu.Unlock()

	idx, err := c.build(ctx)
	if err != nil {
		c.metrics.RecordUpstreamError("coingecko")
		c.log.Warn().Err(err).Msg("index build failed")

		// Stale-if-error: last good in-memory value first, even expired.
		c.mu.Lock()
		if e, ok := c.entries[key]; ok {
			c.mu.Unlock()
			c.metrics.RecordCacheHit("stale")
			return e.index
		}
		c.mu.Unlock()

		// Cold process: try the warm store before degrading to empty.
		if c.store != nil {
			if stored, serr := c.store.Load(ctx, key); serr == nil && len(stored) > 0 {
				c.log.Info().Int("symbols", len(stored)).Msg("serving warm-store index")
				c.metrics.RecordCacheHit("stale")
				return stored
			}
		}

		c.metrics.RecordCacheMiss("empty")
		return Index{}
	}

	c.mu.Lock()
	c.entries[key] = &cacheEntry{index: idx, expiresAt: c.now().Add(c.cfg.TTL)}
	c.mu.Unlock()
	c.metrics.RecordCacheMiss("rebuilt")

	if c.store != nil {
		if serr := c.store.Save(ctx, key, idx); serr != nil {
			c.log.Warn().Err(serr).Msg("warm store save failed")
		}
	}
	return idx
}

// build pages through the source. Rate limiting is retried per page; a
// non-retryable failure aborts pagination early, keeping the pages that
// already succeeded. Only a failure with zero entries gathered fails the
// build.
func (c *Cache) build(ctx context.Context) (Index, error) {
	retry := httpx.RetryPolicy{
		MaxAttempts: c.cfg.MaxAttempts,
		Backoff:     httpx.LinearBackoff(c.cfg.BackoffBase),
		Retryable:   func(err error) bool { return errors.Is(err, httpx.ErrRateLimited) },
	}

	idx := make(Index)
	for page := 1; page <= c.cfg.Pages; page++ {
		var entries []domain.MarketCapEntry
		err := retry.Do(ctx, func() error {
			var ferr error
			entries, ferr = c.source.FetchPage(ctx, page, c.cfg.PerPage)
			return ferr
		})
		if err != nil {
			if len(idx) == 0 {
				return nil, err
			}
			c.log.Warn().Err(err).Int("page", page).Msg("pagination aborted, keeping partial index")
			break
		}

		// First-seen wins: pages are ordered by market cap descending, so
		// the largest-cap asset claims a contested symbol.
		for _, e := range entries {
			if _, exists := idx[e.Symbol]; !exists {
				idx[e.Symbol] = e
			}
		}
	}
	return idx, nil
}
