// SPDX-License-Identifier: MPL-2.0

package store

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sdukit/sdukit/pkg/coord"
)

// DefaultCacheSize is the number of entries kept per cache.
const DefaultCacheSize = 1024

// Cached memoizes version listings and fetched paths of another store.
// Misses are not cached.
type Cached struct {
	next     Store
	versions *lru.Cache[string, []string]
	paths    *lru.Cache[string, string]
}

// NewCached wraps next with caches of the given size.
func NewCached(next Store, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	versions, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("create version cache: %w", err)
	}
	paths, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create path cache: %w", err)
	}
	return &Cached{next: next, versions: versions, paths: paths}, nil
}

// Versions implements Store.
func (c *Cached) Versions(ctx context.Context, co coord.Coordinate) ([]string, error) {
	if v, ok := c.versions.Get(co.Key()); ok {
		return v, nil
	}
	v, err := c.next.Versions(ctx, co)
	if err != nil {
		return nil, err
	}
	if len(v) > 0 {
		c.versions.Add(co.Key(), v)
	}
	return v, nil
}

// Fetch implements Store.
func (c *Cached) Fetch(ctx context.Context, co coord.Coordinate) (string, error) {
	key := co.String() + ":" + co.Classifier
	if p, ok := c.paths.Get(key); ok {
		return p, nil
	}
	p, err := c.next.Fetch(ctx, co)
	if err != nil {
		return "", err
	}
	c.paths.Add(key, p)
	return p, nil
}
