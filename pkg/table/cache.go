package table

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long a cached snapshot is served before the next Get
// reloads it.
const DefaultTTL = 60 * time.Second

// Loader fetches a fresh snapshot.
type Loader func(ctx context.Context) (*Model, error)

// Cache holds the last loaded snapshot with a time-to-live. Every mutating
// operation and every manual refresh must call Invalidate so the next read
// observes the server's current state.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	model    *Model
	loadedAt time.Time

	// now is replaceable in tests.
	now func() time.Time
}

// NewCache creates a cache with the given TTL. A non-positive TTL means
// every Get reloads.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, now: time.Now}
}

// Get returns the cached snapshot, reloading through load when the cache
// is empty, expired, or invalidated. A failed reload leaves the cache
// empty and returns the load error.
func (c *Cache) Get(ctx context.Context, load Loader) (*Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model != nil && c.ttl > 0 && c.now().Sub(c.loadedAt) < c.ttl {
		return c.model, nil
	}

	model, err := load(ctx)
	if err != nil {
		c.model = nil
		return nil, err
	}
	c.model = model
	c.loadedAt = c.now()
	return model, nil
}

// Invalidate drops the cached snapshot.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.model = nil
	c.mu.Unlock()
}
