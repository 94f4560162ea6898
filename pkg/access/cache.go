package access

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore wraps an EntityStore with an LRU cache over point lookups.
// Only positive lookups are cached: a miss must keep hitting the store so
// newly created entities become visible immediately.
type CachedStore struct {
	store EntityStore
	cache *lru.Cache[string, interface{}]
}

// NewCachedStore wraps the store with an LRU of the given size
func NewCachedStore(store EntityStore, size int) (*CachedStore, error) {
	cache, err := lru.New[string, interface{}](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create entity cache: %w", err)
	}
	return &CachedStore{store: store, cache: cache}, nil
}

// Invalidate drops a cached entity after an upstream mutation
func (c *CachedStore) Invalidate(kind ResourceKind, id string) {
	c.cache.Remove(cacheKey(kind, id))
}

// Purge clears the entire cache
func (c *CachedStore) Purge() {
	c.cache.Purge()
}

func cacheKey(kind ResourceKind, id string) string {
	return string(kind) + ":" + id
}

func (c *CachedStore) GetStudent(ctx context.Context, id string) (*Student, error) {
	key := cacheKey(ResourceStudent, id)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*Student), nil
	}
	student, err := c.store.GetStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, student)
	return student, nil
}

func (c *CachedStore) GetParent(ctx context.Context, id string) (*Parent, error) {
	key := cacheKey(ResourceParent, id)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*Parent), nil
	}
	parent, err := c.store.GetParent(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, parent)
	return parent, nil
}

func (c *CachedStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	key := cacheKey(ResourceDocument, id)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*Document), nil
	}
	doc, err := c.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, doc)
	return doc, nil
}

func (c *CachedStore) GetReport(ctx context.Context, id string) (*Report, error) {
	key := cacheKey(ResourceReport, id)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*Report), nil
	}
	report, err := c.store.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, report)
	return report, nil
}

func (c *CachedStore) GetSchool(ctx context.Context, id string) (*School, error) {
	key := cacheKey(ResourceSchool, id)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*School), nil
	}
	school, err := c.store.GetSchool(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, school)
	return school, nil
}
