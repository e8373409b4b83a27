package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"eris/internal/logging"
	"eris/internal/matcher"
	"eris/internal/novel"
)

const (
	indexCacheKey      = "index"
	defaultIndexTTL    = 30 * time.Second
	indexCacheSweepTTL = 5 * time.Minute
)

// novelLister is the read side of the library the catalog needs.
type novelLister interface {
	List(ctx context.Context, lists ...novel.ListStatus) ([]novel.Novel, error)
}

// catalog caches the title index built from the library. Writes made through
// the runtime call invalidate so the next tick sees fresh data.
type catalog struct {
	store  novelLister
	cache  *cache.Cache
	logger *slog.Logger

	mu        sync.Mutex
	threshold float64
	ttl       time.Duration
}

func newCatalog(store novelLister, ttl time.Duration, threshold float64, logger *slog.Logger) *catalog {
	if ttl <= 0 {
		ttl = defaultIndexTTL
	}
	return &catalog{
		store:     store,
		cache:     cache.New(ttl, indexCacheSweepTTL),
		logger:    logger,
		threshold: threshold,
		ttl:       ttl,
	}
}

// Index returns the cached index, rebuilding it from the library on a miss.
func (c *catalog) Index(ctx context.Context) (*matcher.Index, error) {
	if cached, ok := c.cache.Get(indexCacheKey); ok {
		if ix, ok := cached.(*matcher.Index); ok {
			return ix, nil
		}
	}

	novels, err := c.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	c.mu.Lock()
	threshold, ttl := c.threshold, c.ttl
	c.mu.Unlock()

	ix := matcher.NewIndex(novels, matcher.Options{Threshold: threshold, Logger: c.logger})
	c.cache.Set(indexCacheKey, ix, ttl)
	c.logger.Debug("title index rebuilt", logging.Int("novels", ix.Len()))
	return ix, nil
}

// Invalidate drops the cached index.
func (c *catalog) Invalidate() {
	c.cache.Delete(indexCacheKey)
}

// Configure applies new matching settings and drops the index when they changed.
func (c *catalog) Configure(ttl time.Duration, threshold float64) {
	if ttl <= 0 {
		ttl = defaultIndexTTL
	}
	c.mu.Lock()
	changed := c.threshold != threshold || c.ttl != ttl
	c.threshold, c.ttl = threshold, ttl
	c.mu.Unlock()
	if changed {
		c.Invalidate()
	}
}
