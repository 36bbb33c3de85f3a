// SPDX-License-Identifier: MPL-2.0

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/sdukit/sdukit/pkg/coord"
)

// Chain consults stores in order.
type Chain []Store

// Versions implements Store. Listings are merged, keeping first-seen order.
func (ch Chain) Versions(ctx context.Context, c coord.Coordinate) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, s := range ch {
		vs, err := s.Versions(ctx, c)
		if err != nil {
			return nil, err
		}
		for _, v := range vs {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out, nil
}

// Fetch implements Store. The first store holding c wins; ErrNotFound moves
// on to the next store, any other error stops the search.
func (ch Chain) Fetch(ctx context.Context, c coord.Coordinate) (string, error) {
	for _, s := range ch {
		p, err := s.Fetch(ctx, c)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%s: %w", c, ErrNotFound)
}
