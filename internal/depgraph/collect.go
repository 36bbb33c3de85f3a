// SPDX-License-Identifier: MPL-2.0

package depgraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/sdukit/sdukit/internal/resolver"
	"github.com/sdukit/sdukit/pkg/coord"
	"github.com/sdukit/sdukit/pkg/sdumod"
)

type collector struct {
	*walk
	artifacts []resolver.Artifact
	// seen holds resolved coordinates; visited holds module+rule-set pairs
	// already walked so shared subtrees and cycles are walked once.
	seen    map[string]bool
	visited map[string]bool
}

// include resolves c once per run and records its concrete version.
func (c *collector) include(ctx context.Context, co coord.Coordinate) error {
	if c.seen[co.String()] {
		return nil
	}
	a, err := c.b.resolver.Resolve(ctx, co)
	if err != nil {
		return err
	}
	c.seen[co.String()] = true
	c.artifacts = append(c.artifacts, a)
	c.b.versions[a.Coordinate.Key()] = a.Coordinate.Version
	c.b.logger.Debug("collected artifact", "coordinate", a.Coordinate.String(), "path", a.File, "from_build", a.FromBuild)
	return nil
}

func (c *collector) collect(ctx context.Context, d *sdumod.Descriptor, active []coord.Exclusion) error {
	key := d.EffectiveCoordinate().String() + "|" + coord.JoinExclusions(active)
	if c.visited[key] {
		return nil
	}
	c.visited[key] = true

	props := d.EffectiveProperties()
	for _, dep := range d.Dependencies {
		if !dep.Packaging.IsPackageable() {
			continue
		}
		co, err := c.coordinate(ctx, d, dep, props)
		if err != nil {
			return err
		}
		if c.excluded(d, co, active) {
			continue
		}
		if err := c.include(ctx, co); err != nil {
			return err
		}

		dd, err := c.b.resolver.Descriptor(ctx, co)
		if err != nil {
			if errors.Is(err, resolver.ErrArtifactNotFound) {
				c.b.logger.Warn("descriptor not found, transitive dependencies skipped",
					"dependency", co.String(), "module", d.String())
				continue
			}
			return fmt.Errorf("descriptor of %s: %w", co, err)
		}
		if err := c.collect(ctx, dd, c.exclusionsBelow(dep)); err != nil {
			return err
		}
	}
	return nil
}
