package cachemanager

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/peek-a-repo/peek/internal/log"
)

// Outcome describes how a ReadThroughCache lookup was satisfied.
type Outcome int

const (
	// Hit means the value was already cached.
	Hit Outcome = iota
	// Loaded means this caller ran the loader.
	Loaded
	// Shared means this caller joined a load started by another caller.
	Shared
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Loaded:
		return "loaded"
	case Shared:
		return "shared"
	default:
		return "unknown"
	}
}

// Stats counts lookups by outcome.
type Stats struct {
	Hits   uint64
	Loads  uint64
	Shared uint64
	Errors uint64
}

// ReadThroughCache fronts a CacheManager with a loader. Concurrent misses for
// the same key share one loader call. A successful value is stored before
// any waiter sees it; errors are returned to every waiter and never stored.
type ReadThroughCache[K ~string, V any] struct {
	cache CacheManager[K, V]
	group singleflight.Group
	ttl   time.Duration

	hits, loads, shared, errs atomic.Uint64
}

// NewReadThroughCache wraps cache. ttl is applied to stored values.
func NewReadThroughCache[K ~string, V any](cache CacheManager[K, V], ttl time.Duration) *ReadThroughCache[K, V] {
	return &ReadThroughCache[K, V]{cache: cache, ttl: ttl}
}

// Peek returns a cached value without loading.
func (r *ReadThroughCache[K, V]) Peek(ctx context.Context, key K) (V, bool) {
	return r.cache.Get(ctx, key)
}

// Get returns the cached value for key, or runs load once for all concurrent
// callers asking for the same key.
func (r *ReadThroughCache[K, V]) Get(ctx context.Context, key K, load func(ctx context.Context) (V, error)) (V, Outcome, error) {
	if value, ok := r.cache.Get(ctx, key); ok {
		r.hits.Add(1)
		return value, Hit, nil
	}

	var ran bool
	// The shared load must not die with whichever caller happened to start it.
	loadCtx := context.WithoutCancel(ctx)
	res, err, _ := r.group.Do(string(key), func() (any, error) {
		ran = true
		// A load for this key may have completed between the miss above and Do.
		if value, ok := r.cache.Get(loadCtx, key); ok {
			return value, nil
		}
		value, err := load(loadCtx)
		if err != nil {
			return value, err
		}
		r.cache.Set(loadCtx, key, value, r.ttl)
		return value, nil
	})

	outcome := Shared
	if ran {
		outcome = Loaded
		r.loads.Add(1)
	} else {
		r.shared.Add(1)
	}

	if err != nil {
		r.errs.Add(1)
		log.Debug(log.CatCache, "load failed, not cached", "key", key, "outcome", outcome, "error", err)
		var zero V
		return zero, outcome, err
	}

	value, _ := res.(V)
	return value, outcome, nil
}

// Store puts value under key without touching the load group. A load
// already in flight for key may still overwrite it when it completes.
func (r *ReadThroughCache[K, V]) Store(ctx context.Context, key K, value V) {
	r.cache.Set(ctx, key, value, r.ttl)
}

// Forget drops a stored value so the next Get reloads it.
func (r *ReadThroughCache[K, V]) Forget(ctx context.Context, key K) {
	_ = r.cache.Delete(ctx, key)
	r.group.Forget(string(key))
}

// Stats returns a snapshot of lookup counters.
func (r *ReadThroughCache[K, V]) Stats() Stats {
	return Stats{
		Hits:   r.hits.Load(),
		Loads:  r.loads.Load(),
		Shared: r.shared.Load(),
		Errors: r.errs.Load(),
	}
}
