package identity

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dgraph-io/ristretto"
)

// CacheConfig sizes the identity cache.
type CacheConfig struct {
	// MaxEntries bounds the number of cached identities (each costs 1).
	// Default: 10000
	MaxEntries int64

	// TTL expires cached identities so renames in the directory show up.
	// Zero keeps entries until evicted.
	// Default: 10 minutes
	TTL time.Duration
}

// DefaultCacheConfig returns sensible defaults for a family-sized directory.
var DefaultCacheConfig = &CacheConfig{
	MaxEntries: 10000,
	TTL:        10 * time.Minute,
}

// Cached is a read-through cache in front of another Registry.
// Face-binding UIs resolve the same few identities repeatedly while a user
// walks through an album; Resolve hits the backing registry once per TTL.
type Cached struct {
	next  Registry
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewCached wraps next with a ristretto cache.
func NewCached(next Registry, config *CacheConfig) (*Cached, error) {
	if config == nil {
		config = DefaultCacheConfig
	}
	maxEntries := config.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultCacheConfig.MaxEntries
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create identity cache: %w", err)
	}

	return &Cached{next: next, cache: cache, ttl: config.TTL}, nil
}

// Resolve returns the cached identity or loads it from the backing registry.
func (c *Cached) Resolve(ctx context.Context, id string) (*Identity, error) {
	if v, ok := c.cache.Get(id); ok {
		cp := *v.(*Identity)
		return &cp, nil
	}

	ident, err := c.next.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	c.put(ident)
	return ident, nil
}

// Create registers the identity in the backing registry and caches it.
func (c *Cached) Create(ctx context.Context, name string) (*Identity, error) {
	ident, err := c.next.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	c.put(ident)
	log.Printf("[IDENTITY] Created identity %s (%q)", ident.ID, ident.Name)
	return ident, nil
}

// List always reads through; listings are not cached.
func (c *Cached) List(ctx context.Context) ([]*Identity, error) {
	return c.next.List(ctx)
}

// Invalidate drops an identity from the cache.
func (c *Cached) Invalidate(id string) {
	c.cache.Del(id)
}

// Wait blocks until pending cache writes are applied.
func (c *Cached) Wait() {
	c.cache.Wait()
}

// Close releases the cache.
func (c *Cached) Close() {
	c.cache.Close()
}

func (c *Cached) put(ident *Identity) {
	cp := *ident
	if c.ttl > 0 {
		c.cache.SetWithTTL(ident.ID, &cp, 1, c.ttl)
	} else {
		c.cache.Set(ident.ID, &cp, 1)
	}
}
