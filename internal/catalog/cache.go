package catalog

import (
	"sync"
	"time"
)

const DefaultCacheTTL = 60 * time.Second

// Cache holds the last unfiltered listing and a by-id map, each entry aged
// independently. Entries are replaced whole; the only eviction is
// InvalidateAll.
//
// Writers pass the generation they read before going to the source. A write
// carrying a generation older than the last invalidation is dropped, so a
// read that raced a mutation cannot put pre-mutation data back.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	gen     uint64
	listing *cachedListing
	byID    map[int64]cachedProduct
}

type cachedListing struct {
	products []Product
	at       time.Time
}

type cachedProduct struct {
	product Product
	at      time.Time
}

func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{ttl: ttl, now: now, byID: make(map[int64]cachedProduct)}
}

func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

func (c *Cache) ListingFresh() bool {
	_, ok := c.Listing()
	return ok
}

// Listing returns the cached unfiltered listing while it is fresh. The slice
// is shared; callers must not modify it.
func (c *Cache) Listing() ([]Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.listing == nil || c.now().Sub(c.listing.at) >= c.ttl {
		return nil, false
	}
	return c.listing.products, true
}

// StoreListing must only be given the result of an unfiltered read.
func (c *Cache) StoreListing(gen uint64, products []Product) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return false
	}
	c.listing = &cachedListing{products: products, at: c.now()}
	return true
}

func (c *Cache) Get(id int64) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.byID[id]
	if !ok || c.now().Sub(e.at) >= c.ttl {
		return Product{}, false
	}
	return e.product, true
}

func (c *Cache) Put(gen uint64, p Product) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return false
	}
	c.byID[p.ID] = cachedProduct{product: p, at: c.now()}
	return true
}

func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.listing = nil
	c.byID = make(map[int64]cachedProduct)
}
