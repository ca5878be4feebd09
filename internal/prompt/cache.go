package prompt

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/specforge-backend/internal/platform/logger"
)

const (
	DefaultCacheTTL        = 300 * time.Second
	DefaultCacheMaxEntries = 100

	// sharedFetchTimeout bounds a store fetch once no single caller owns its lifetime.
	sharedFetchTimeout = 10 * time.Second
)

type CacheOptions struct {
	TTL        time.Duration
	MaxEntries int
	Clock      clock.Clock
	Logger     *logger.Logger
}

type cacheEntry struct {
	key        string
	frag       Fragment
	insertedAt time.Time
}

// Cache is a TTL cache with LRU overflow eviction in front of a Store. It is itself a Store.
// Concurrent misses on one key share a single upstream fetch.
type Cache struct {
	store Store
	ttl   time.Duration
	max   int
	clk   clock.Clock
	log   *logger.Logger

	mu    sync.Mutex
	ll    *list.List
	items map[string]*list.Element
	// gen changes on Clear so fetches that started earlier do not repopulate.
	gen uint64

	group singleflight.Group
}

func NewCache(store Store, opts CacheOptions) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultCacheTTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultCacheMaxEntries
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Cache{
		store: store,
		ttl:   opts.TTL,
		max:   opts.MaxEntries,
		clk:   opts.Clock,
		log:   opts.Logger.With("component", "PromptCache"),
		ll:    list.New(),
		items: make(map[string]*list.Element),
	}
}

// Fetch returns the cached fragment for (kind, identifier, version) or loads it from the store.
// Failures, including ErrNotFound, are never cached.
func (c *Cache) Fetch(ctx context.Context, kind Kind, identifier string, version int) (Fragment, error) {
	key := cacheKey(kind, identifier, version)

	if f, ok := c.get(key); ok {
		c.log.Debug("prompt cache hit", "key", key)
		return f, nil
	}

	// The shared fetch outlives any one caller; each caller stops waiting on its own ctx.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		c.mu.Lock()
		gen := c.gen
		c.mu.Unlock()

		fetchCtx, cancel := context.WithTimeout(shared, sharedFetchTimeout)
		defer cancel()
		f, err := c.store.Fetch(fetchCtx, kind, identifier, version)
		if err != nil {
			return Fragment{}, err
		}
		c.put(key, f, gen)
		return f, nil
	})
	select {
	case <-ctx.Done():
		return Fragment{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Fragment{}, res.Err
		}
		return res.Val.(Fragment), nil
	}
}

func (c *Cache) get(key string) (Fragment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return Fragment{}, false
	}
	ent := el.Value.(*cacheEntry)
	if c.clk.Now().Sub(ent.insertedAt) > c.ttl {
		c.ll.Remove(el)
		delete(c.items, key)
		return Fragment{}, false
	}
	c.ll.MoveToFront(el)
	return ent.frag, true
}

func (c *Cache) put(key string, f Fragment, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}
	now := c.clk.Now()
	if el, ok := c.items[key]; ok {
		ent := el.Value.(*cacheEntry)
		ent.frag = f
		ent.insertedAt = now
		c.ll.MoveToFront(el)
		return
	}
	c.items[key] = c.ll.PushFront(&cacheEntry{key: key, frag: f, insertedAt: now})
	for c.ll.Len() > c.max {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}

// Clear drops every entry immediately.
func (c *Cache) Clear() {
	c.mu.Lock()
	n := c.ll.Len()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
	c.gen++
	c.mu.Unlock()
	c.log.Info("prompt cache cleared", "entries", n)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
