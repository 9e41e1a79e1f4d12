// Package cache holds the denormalized client aggregates the token flow
// reads on every request, so authentication lookups skip the multi-table
// hydration in the common case. Entries never expire; correctness comes
// from invalidation, not TTLs.
package cache

import (
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/castellan/castellan/internal/admin/domain"
)

const (
	keyByID       = "clients:id:"
	keyByClientID = "clients:client_id:"
)

// ClientCache is an invalidation-only cache of hydrated client aggregates,
// addressable by surrogate id and by client id. A generation counter guards
// against a hydration racing a flush: a Put is dropped when any eviction
// happened after the reader started hydrating, so stale aggregates cannot
// be resurrected.
type ClientCache struct {
	mu    sync.Mutex
	gen   uint64
	store *gocache.Cache
}

func NewClientCache() *ClientCache {
	return &ClientCache{
		store: gocache.New(gocache.NoExpiration, 0),
	}
}

// GetByID returns the cached aggregate for the surrogate id, if present.
func (c *ClientCache) GetByID(id string) (domain.Client, bool) {
	return c.get(keyByID + id)
}

// GetByClientID returns the cached aggregate for the natural key, if present.
func (c *ClientCache) GetByClientID(clientID string) (domain.Client, bool) {
	return c.get(keyByClientID + clientID)
}

func (c *ClientCache) get(key string) (domain.Client, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return domain.Client{}, false
	}
	return v.(domain.Client), true
}

// Generation returns the current invalidation generation. Capture it before
// hydrating and hand it to PutIfFresh afterwards.
func (c *ClientCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// PutIfFresh stores the aggregate under both keys unless an eviction has
// happened since gen was captured. Reports whether the entry was stored.
func (c *ClientCache) PutIfFresh(gen uint64, client domain.Client) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.store.Set(keyByID+client.ID, client, gocache.NoExpiration)
	c.store.Set(keyByClientID+client.ClientID, client, gocache.NoExpiration)
	return true
}

// Evict removes both of the client's keys and bumps the generation.
func (c *ClientCache) Evict(client domain.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.store.Delete(keyByID + client.ID)
	c.store.Delete(keyByClientID + client.ClientID)
}

// EvictAll drops every entry. Reference mutations call this because any
// client may embed the changed reference.
func (c *ClientCache) EvictAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.store.Flush()
}
