package interact

import (
	"sync"

	"github.com/slatebar/slatebar/pkg/tui"
)

// TagCache keeps interact tags stable across re-renders of unchanged items.
// A key seen in the previous update pass keeps its tag and cached value; keys
// that skip a pass are pruned at the start of the next one, and their tags
// are deregistered from the router.
type TagCache[K comparable, V any] struct {
	router *Router
	owner  string

	mu   sync.Mutex
	prev map[K]cacheEntry[V]
	cur  map[K]cacheEntry[V]
}

type cacheEntry[V any] struct {
	tag tui.Tag
	val V
}

// NewTagCache creates a cache whose registrations belong to owner.
func NewTagCache[K comparable, V any](router *Router, owner string) *TagCache[K, V] {
	return &TagCache[K, V]{
		router: router,
		owner:  owner,
		prev:   make(map[K]cacheEntry[V]),
		cur:    make(map[K]cacheEntry[V]),
	}
}

// BeginPass starts a new update pass. Keys not touched during the previous
// pass are evicted and their tags deregistered.
func (c *TagCache[K, V]) BeginPass() {
	c.mu.Lock()
	stale := c.prev
	c.prev = c.cur
	c.cur = make(map[K]cacheEntry[V])
	c.mu.Unlock()

	for _, e := range stale {
		c.router.Deregister(e.tag)
	}
}

// GetOrInit returns the cached (tag, value) for key, carrying it over from
// the previous pass when present. Otherwise init is invoked exactly once
// with a freshly minted tag; init typically registers callbacks and menus
// for the tag before returning the value to cache.
func (c *TagCache[K, V]) GetOrInit(key K, init func(tui.Tag) V) (tui.Tag, V) {
	c.mu.Lock()
	if e, ok := c.cur[key]; ok {
		c.mu.Unlock()
		return e.tag, e.val
	}
	if e, ok := c.prev[key]; ok {
		delete(c.prev, key)
		c.cur[key] = e
		c.mu.Unlock()
		return e.tag, e.val
	}
	c.mu.Unlock()

	tag := NextTag()
	val := init(tag)
	c.mu.Lock()
	c.cur[key] = cacheEntry[V]{tag: tag, val: val}
	c.mu.Unlock()
	return tag, val
}

// Release evicts everything and deregisters all cached tags.
func (c *TagCache[K, V]) Release() {
	c.mu.Lock()
	all := make([]tui.Tag, 0, len(c.prev)+len(c.cur))
	for _, e := range c.prev {
		all = append(all, e.tag)
	}
	for _, e := range c.cur {
		all = append(all, e.tag)
	}
	c.prev = make(map[K]cacheEntry[V])
	c.cur = make(map[K]cacheEntry[V])
	c.mu.Unlock()

	for _, tag := range all {
		c.router.Deregister(tag)
	}
}
