package repositories

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"katalog/internal/models"
)

// ProductCacheTTL is how long a cached product snapshot stays valid
// without an intervening write.
const ProductCacheTTL = time.Hour

// ProductCache is the injected record cache keyed by product id. It is
// a pure performance optimization: a miss always falls through to a
// live lookup, and writers evict synchronously.
type ProductCache interface {
	Get(id string) (*models.Product, bool)
	Set(id string, product *models.Product, ttl time.Duration)
	Evict(id string)
}

// MemoryProductCache is an in-process ProductCache backed by go-cache.
type MemoryProductCache struct {
	store *gocache.Cache
}

// NewMemoryProductCache creates a cache whose entries expire after
// ProductCacheTTL by default.
func NewMemoryProductCache() *MemoryProductCache {
	return &MemoryProductCache{
		store: gocache.New(ProductCacheTTL, 10*time.Minute),
	}
}

// Get returns the cached snapshot for id, if present and unexpired.
func (c *MemoryProductCache) Get(id string) (*models.Product, bool) {
	v, ok := c.store.Get(id)
	if !ok {
		return nil, false
	}
	product, ok := v.(models.Product)
	if !ok {
		return nil, false
	}
	// Return a copy so callers cannot mutate the cached snapshot.
	return &product, true
}

// Set stores a snapshot of the product under its id.
func (c *MemoryProductCache) Set(id string, product *models.Product, ttl time.Duration) {
	if product == nil {
		return
	}
	c.store.Set(id, *product, ttl)
}

// Evict drops the entry for id, if any.
func (c *MemoryProductCache) Evict(id string) {
	c.store.Delete(id)
}
