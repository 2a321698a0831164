// Package cache memoizes derived values per object and per function arguments.
//
// Entries never expire. Every write path is responsible for invalidating the
// entries it affects; a missed invalidation is a stale read.
package cache

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jellydator/ttlcache/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// Object is anything with a stable cache identity, such as "place:12".
type Object interface {
	CacheKey() string
}

// Key is a raw object identity, for invalidating objects that are not loaded.
type Key string

// CacheKey implements Object.
func (k Key) CacheKey() string {
	return string(k)
}

// Cache is a process-local memo store.
type Cache struct {
	mu    sync.Mutex
	items *ttlcache.Cache[string, any]
	// gens is bumped on every invalidation of a scope so that a value computed
	// before the invalidation is not stored after it.
	gens map[string]uint64
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		items: ttlcache.New(
			ttlcache.WithTTL[string, any](ttlcache.NoTTL),
			ttlcache.WithDisableTouchOnHit[string, any](),
		),
		gens: make(map[string]uint64),
	}
}

// Memoize returns the value computed by fn for (obj, name), computing it on first use.
func Memoize[T any](c *Cache, obj Object, name string, fn func() (T, error)) (T, error) {
	scope := objectScope(obj.CacheKey())
	return getOrCompute(c, scope, scope+"|"+name, fn)
}

// MemoizeArgs returns the value computed by fn for (fnName, args), computing it on first use.
func MemoizeArgs[T any](c *Cache, fnName string, args []any, fn func() (T, error)) (T, error) {
	scope := argsScope(fnName, args)
	return getOrCompute(c, scope, scope, fn)
}

func getOrCompute[T any](c *Cache, scope, key string, fn func() (T, error)) (T, error) {
	if item := c.items.Get(key); item != nil {
		if v, ok := item.Value().(T); ok {
			return v, nil
		}
	}

	c.mu.Lock()
	gen := c.gens[scope]
	c.mu.Unlock()

	v, err := fn()
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	if c.gens[scope] == gen {
		c.items.Set(key, v, ttlcache.NoTTL)
	}
	c.mu.Unlock()
	return v, nil
}

// InvalidateObject drops every per-object entry of the given objects.
func (c *Cache) InvalidateObject(objs ...Object) {
	if len(objs) == 0 {
		return
	}
	scopes := make([]string, 0, len(objs))
	for _, obj := range objs {
		scopes = append(scopes, objectScope(obj.CacheKey()))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, scope := range scopes {
		c.gens[scope]++
	}
	for _, key := range c.items.Keys() {
		for _, scope := range scopes {
			if key == scope || strings.HasPrefix(key, scope+"|") {
				c.items.Delete(key)
				break
			}
		}
	}
}

// InvalidateArgs drops the entry memoized for (fnName, args).
func (c *Cache) InvalidateArgs(fnName string, args ...any) {
	scope := argsScope(fnName, args)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[scope]++
	c.items.Delete(scope)
}

// Clear drops everything.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.items.Keys() {
		c.gens[scopeOf(key)]++
	}
	c.items.DeleteAll()
}

// Len is the number of cached entries.
func (c *Cache) Len() int {
	return c.items.Len()
}

// Collectors exposes hit/miss counters for a prometheus registry.
func (c *Cache) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "voternet_cache_hits_total",
			Help: "Number of memoized values served from the cache.",
		}, func() float64 { return float64(c.items.Metrics().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "voternet_cache_misses_total",
			Help: "Number of memoized values that had to be computed.",
		}, func() float64 { return float64(c.items.Metrics().Misses) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "voternet_cache_entries",
			Help: "Number of entries currently cached.",
		}, func() float64 { return float64(c.items.Len()) }),
	}
}

func objectScope(objKey string) string {
	return "o|" + objKey
}

func argsScope(fnName string, args []any) string {
	var b strings.Builder
	b.WriteString("f|")
	b.WriteString(fnName)
	for _, a := range args {
		b.WriteString("|")
		fmt.Fprint(&b, a)
	}
	return b.String()
}

// scopeOf recovers the invalidation scope of a stored key.
func scopeOf(key string) string {
	if strings.HasPrefix(key, "o|") {
		rest := key[2:]
		if i := strings.Index(rest, "|"); i >= 0 {
			return key[:2+i]
		}
	}
	return key
}
