package preview

import (
	"context"

	"github.com/peek-a-repo/peek/internal/cachemanager"
	"github.com/peek-a-repo/peek/internal/log"
)

// Gateway fetches repository content. Implementations return *Error values
// classified by ErrorKind.
type Gateway interface {
	GetFile(ctx context.Context, t Target) (string, error)
	GetDirectory(ctx context.Context, t Target) (PageResult, error)
}

// BuildFunc turns fetched file content into a rendered payload.
type BuildFunc[P any] func(t Target, content string) (P, error)

// Resolver answers preview lookups for one session. Directory listings and
// rendered file payloads are cached separately for the session's lifetime;
// concurrent lookups for the same key share a single gateway call, and
// failures are never cached.
type Resolver[P any] struct {
	gateway Gateway
	build   BuildFunc[P]
	pages   *cachemanager.ReadThroughCache[CacheKey, PageResult]
	files   *cachemanager.ReadThroughCache[CacheKey, P]
}

// NewResolver creates a Resolver over gw. build renders file content once per
// key; repeated hovers reuse its result.
func NewResolver[P any](gw Gateway, build BuildFunc[P]) *Resolver[P] {
	return &Resolver[P]{
		gateway: gw,
		build:   build,
		pages: cachemanager.NewReadThroughCache[CacheKey, PageResult](
			cachemanager.NewSessionCache[CacheKey, PageResult]("pages"),
			cachemanager.NoExpiration,
		),
		files: cachemanager.NewReadThroughCache[CacheKey, P](
			cachemanager.NewSessionCache[CacheKey, P]("payloads"),
			cachemanager.NoExpiration,
		),
	}
}

// Directory returns the sorted listing for t. An empty listing is a valid
// result and is cached like any other.
func (r *Resolver[P]) Directory(ctx context.Context, t Target) (PageResult, error) {
	key := t.Key()
	page, outcome, err := r.pages.Get(ctx, key, func(ctx context.Context) (PageResult, error) {
		page, err := r.gateway.GetDirectory(ctx, t)
		if err != nil {
			return PageResult{}, err
		}
		entries := make([]Entry, len(page.Entries))
		copy(entries, page.Entries)
		SortEntries(entries)
		page.Entries = entries
		return page, nil
	})
	if err != nil {
		log.Warn(log.CatCache, "directory lookup failed", "key", key, "kind", KindOf(err), "outcome", outcome)
		return PageResult{}, err
	}
	log.Debug(log.CatCache, "directory resolved", "key", key, "outcome", outcome, "entries", len(page.Entries))
	return page, nil
}

// CachedDirectory returns a listing only if it is already cached.
func (r *Resolver[P]) CachedDirectory(ctx context.Context, t Target) (PageResult, bool) {
	return r.pages.Peek(ctx, t.Key())
}

// File returns the rendered payload for t, fetching and building it on the
// first lookup.
func (r *Resolver[P]) File(ctx context.Context, t Target) (P, error) {
	key := t.Key()
	payload, outcome, err := r.files.Get(ctx, key, func(ctx context.Context) (P, error) {
		content, err := r.gateway.GetFile(ctx, t)
		if err != nil {
			var zero P
			return zero, err
		}
		return r.build(t, content)
	})
	if err != nil {
		log.Warn(log.CatCache, "file lookup failed", "key", key, "kind", KindOf(err), "outcome", outcome)
		return payload, err
	}
	log.Debug(log.CatCache, "file resolved", "key", key, "outcome", outcome)
	return payload, nil
}

// FileFromContent returns the rendered payload for t using content that is
// already at hand, such as a directory prefetch. No gateway call is made and
// it never joins an in-flight File lookup for the same key, so it is safe to
// call from the UI task.
func (r *Resolver[P]) FileFromContent(ctx context.Context, t Target, content string) (P, error) {
	key := t.Key()
	if payload, ok := r.files.Peek(ctx, key); ok {
		return payload, nil
	}
	payload, err := r.build(t, content)
	if err != nil {
		return payload, err
	}
	r.files.Store(ctx, key, payload)
	log.Debug(log.CatCache, "file built from prefetch", "key", key)
	return payload, nil
}

// CachedFile returns a rendered payload only if it is already cached.
func (r *Resolver[P]) CachedFile(ctx context.Context, t Target) (P, bool) {
	return r.files.Peek(ctx, t.Key())
}

// Stats returns lookup counters for the page and payload caches.
func (r *Resolver[P]) Stats() (pages, files cachemanager.Stats) {
	return r.pages.Stats(), r.files.Stats()
}
