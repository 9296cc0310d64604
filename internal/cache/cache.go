// Package cache holds the session's in-memory view of the item store:
// a snapshot of all items plus the distinct category and shop values
// that feed the dropdowns. The snapshot is disposable — it is rebuilt
// wholesale from the store whenever marked dirty, never patched.
package cache

import (
	"sort"
	"sync"

	"github.com/neststash/neststash/internal/model"
)

// ItemSource is the slice of the item store the cache reads from.
type ItemSource interface {
	GetAll() ([]model.Item, error)
}

// Cache is a read-through snapshot of the item store. Every store
// mutation must call Invalidate before control returns to the caller;
// a missed invalidation is the stale-read bug this layer exists to
// prevent.
type Cache struct {
	mu         sync.Mutex
	source     ItemSource
	snapshot   []model.Item
	categories []string
	shops      []string
	dirty      bool
}

func New(source ItemSource) *Cache {
	return &Cache{source: source, dirty: true}
}

// Invalidate marks the snapshot stale. Cheap and synchronous; the
// rebuild happens lazily on the next read.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

// EnsureFresh rebuilds the snapshot from the store if it is dirty.
func (c *Cache) EnsureFresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureFreshLocked()
}

func (c *Cache) ensureFreshLocked() error {
	if !c.dirty {
		return nil
	}

	items, err := c.source.GetAll()
	if err != nil {
		return err
	}

	c.snapshot = items
	c.categories = distinct(items, func(i model.Item) string { return i.Category })
	c.shops = distinct(items, func(i model.Item) string { return i.Shop })
	c.dirty = false
	return nil
}

// Read returns the fresh snapshot. The returned slice is shared;
// callers must not mutate it in place.
func (c *Cache) Read() ([]model.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureFreshLocked(); err != nil {
		return nil, err
	}
	return c.snapshot, nil
}

// Categories returns the sorted distinct non-empty category values.
func (c *Cache) Categories() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureFreshLocked(); err != nil {
		return nil, err
	}
	return c.categories, nil
}

// Shops returns the sorted distinct non-empty shop values.
func (c *Cache) Shops() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureFreshLocked(); err != nil {
		return nil, err
	}
	return c.shops, nil
}

func distinct(items []model.Item, field func(model.Item) string) []string {
	seen := make(map[string]struct{})
	var values []string
	for _, item := range items {
		v := field(item)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
