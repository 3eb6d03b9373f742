// Package cache provides a TTL-bounded, stampede-safe generic cache. The
// selection engine uses it for SelectionResult values; the comparison engine
// does not use it.
//
// Grounded on driftmgr's internal/performance/distributed_cache.go for the
// promauto-backed hit/miss metrics and TTL memory-cache shape, simplified to
// an in-memory-only cache (no distributed backend is named anywhere in
// SPEC_FULL.md) and extended with golang.org/x/sync/singleflight to collapse
// concurrent misses for the same key into one underlying fetch, preventing
// the cache-stampede failure mode the distributed cache's WriteThrough/
// ReadThrough knobs are there to manage.
package cache

import (
	"sync"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

// Cache is a generic TTL cache keyed by string, with Prometheus hit/miss
// counters backing the cache_hit_ratio_target diagnostic (spec.md §6).
type Cache[T any] struct {
	mu    sync.RWMutex
	items map[string]entry[T]
	ttl   time.Duration
	group singleflight.Group

	hits   prometheus.Counter
	misses prometheus.Counter
}

type entry[T any] struct {
	value   T
	expires time.Time
}

// New builds a Cache with the given TTL and a metrics name prefix, so
// each cache registers distinct Prometheus series.
func New[T any](ttl time.Duration, metricPrefix string) *Cache[T] {
	return &Cache[T]{
		items: make(map[string]entry[T]),
		ttl:   ttl,
		hits: promauto.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "_cache_hits_total",
			Help: "Number of cache hits for " + metricPrefix + " lookups.",
		}),
		misses: promauto.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "_cache_misses_total",
			Help: "Number of cache misses for " + metricPrefix + " lookups.",
		}),
	}
}

// Get returns the cached value for key if present and unexpired.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	var zero T
	if !ok || time.Now().After(e.expires) {
		c.misses.Inc()
		return zero, false
	}
	c.hits.Inc()
	return e.value, true
}

// Set stores value under key with the cache's configured TTL.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry[T]{value: value, expires: time.Now().Add(c.ttl)}
}

// GetOrLoad returns the cached value for key, or calls load exactly once
// across concurrent callers sharing the same key (singleflight), caching
// and returning its result.
func (c *Cache[T]) GetOrLoad(key string, load func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		val, err := load()
		if err != nil {
			return nil, err
		}
		c.Set(key, val)
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// HitRatio reports the current hit ratio, for comparison against the
// configured cache_hit_ratio_target diagnostic.
func (c *Cache[T]) HitRatio() float64 {
	hits := counterValue(c.hits)
	misses := counterValue(c.misses)
	total := hits + misses
	if total == 0 {
		return 0
	}
	return hits / total
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
