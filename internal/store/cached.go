package store

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/livefir/rsxhot"
)

// Cached is a read-through LRU in front of another Store.
type Cached struct {
	inner Store
	cache *lru.Cache[string, *rsxhot.HotReloadedTemplate]
}

// NewCached wraps inner with an LRU of size entries. A non-positive size
// returns an error.
func NewCached(inner Store, size int) (*Cached, error) {
	cache, err := lru.New[string, *rsxhot.HotReloadedTemplate](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &Cached{inner: inner, cache: cache}, nil
}

func (c *Cached) Get(ctx context.Context, location string) (*rsxhot.HotReloadedTemplate, error) {
	if tmpl, ok := c.cache.Get(location); ok {
		return tmpl, nil
	}
	tmpl, err := c.inner.Get(ctx, location)
	if err != nil {
		return nil, err
	}
	c.cache.Add(location, tmpl)
	return tmpl, nil
}

func (c *Cached) Put(ctx context.Context, location string, tmpl *rsxhot.HotReloadedTemplate) error {
	if err := c.inner.Put(ctx, location, tmpl); err != nil {
		return err
	}
	c.cache.Add(location, tmpl)
	return nil
}

func (c *Cached) Delete(ctx context.Context, location string) error {
	c.cache.Remove(location)
	return c.inner.Delete(ctx, location)
}

// DeletePrefix deletes from the inner store before evicting; a read between
// the two must not leave a stale entry cached.
func (c *Cached) DeletePrefix(ctx context.Context, prefix string) error {
	if err := c.inner.DeletePrefix(ctx, prefix); err != nil {
		return err
	}
	for _, location := range c.cache.Keys() {
		if strings.HasPrefix(location, prefix) {
			c.cache.Remove(location)
		}
	}
	return nil
}

func (c *Cached) List(ctx context.Context) ([]Entry, error) {
	return c.inner.List(ctx)
}

// Len returns the number of cached templates.
func (c *Cached) Len() int { return c.cache.Len() }

func (c *Cached) Close() error {
	c.cache.Purge()
	return c.inner.Close()
}
