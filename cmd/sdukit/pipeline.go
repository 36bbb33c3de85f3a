// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/sdukit/sdukit/internal/config"
	"github.com/sdukit/sdukit/internal/depgraph"
	"github.com/sdukit/sdukit/internal/issue"
	"github.com/sdukit/sdukit/internal/reactor"
	"github.com/sdukit/sdukit/internal/resolver"
	"github.com/sdukit/sdukit/internal/store"
	"github.com/sdukit/sdukit/pkg/coord"
	"github.com/sdukit/sdukit/pkg/sdumod"
)

// workspaceRun is the shared setup of the commands that read a workspace.
type workspaceRun struct {
	ws      *sdumod.Workspace
	project coord.Coordinate
	builder *depgraph.Builder
	logger  *log.Logger
	modules []*sdumod.Descriptor
}

// openWorkspace loads the workspace at dir and wires the in-progress build
// session, the artifact stores and the resolver behind a graph builder.
func (a *App) openWorkspace(dir string, includeAll bool) (*workspaceRun, error) {
	ws, err := sdumod.LoadWorkspace(dir)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load workspace").
			WithResource(dir).
			WithSuggestion("Run the command from the workspace root or pass its directory").
			Wrap(err).
			BuildError()
	}
	project := ws.Root.EffectiveCoordinate()

	session, err := reactor.NewFiles(reactor.FilesConfig{
		Workspace:    ws,
		OutputDir:    a.cfg.Build.OutputDir,
		PollInterval: a.cfg.Build.PollInterval,
		Logger:       a.logger.WithPrefix("session"),
	})
	if err != nil {
		return nil, err
	}
	st, err := newStore(a.cfg.Repository)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("configure artifact repository").
			WithSuggestion("Check the repository section of your configuration").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	res := resolver.New(resolver.Options{
		Store:   st,
		Session: session,
		Logger:  a.logger.WithPrefix("resolve"),
	})
	b := depgraph.New(depgraph.Options{Resolver: res, Logger: a.logger.WithPrefix("graph")})

	modules := ws.Roots(includeAll)
	a.logger.Debug("workspace loaded", "project", project, "modules", len(ws.Modules), "roots", len(modules))
	return &workspaceRun{ws: ws, project: project, builder: b, logger: a.logger, modules: modules}, nil
}

// roots returns the coordinates to start from. Workspace modules matching an
// exclusion are left out like any excluded dependency.
func (w *workspaceRun) roots(exclusions []coord.Exclusion) []coord.Coordinate {
	var out []coord.Coordinate
	for _, d := range w.modules {
		c := d.EffectiveCoordinate()
		if d != w.ws.Root {
			if rule, ok := coord.MatchAny(exclusions, c); ok {
				w.logger.Info("excluded workspace module", "coordinate", c.String(), "rule", rule.String())
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// collect resolves the workspace roots into a packaging plan.
func (w *workspaceRun) collect(ctx context.Context, exclusions []coord.Exclusion) (*depgraph.Plan, error) {
	plan, err := w.builder.Collect(ctx, w.roots(exclusions), exclusions)
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", w.project, err)
	}
	return plan, nil
}

// outputDir resolves the configured output directory against the workspace root.
func (w *workspaceRun) outputDir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(w.ws.Root.Dir(), dir)
}

// newStore chains the local repository with the optional S3 repository and
// puts an LRU in front of both.
func newStore(cfg config.RepositoryConfig) (store.Store, error) {
	chain := store.Chain{store.NewLocal(cfg.Local)}
	if cfg.S3Enabled() {
		s3, err := store.NewS3(store.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
			Prefix:    cfg.S3.Prefix,
			CacheDir:  cfg.CacheDir,
		})
		if err != nil {
			return nil, err
		}
		chain = append(chain, s3)
	}
	if cfg.VersionCacheSize == 0 {
		return chain, nil
	}
	return store.NewCached(chain, cfg.VersionCacheSize)
}
