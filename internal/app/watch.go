package app

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/engine/project"
	"go.trai.ch/zerr"
)

// Watch builds the project and rebuilds it whenever a source or the project file changes.
// Build failures are reported and watching continues. It returns nil when ctx is cancelled.
func (a *App) Watch(ctx context.Context, opts BuildOptions) error {
	p, desc, err := a.Load(opts.LoadOptions)
	if err != nil {
		return err
	}
	// Later reloads must read the same file even if the working directory is searched again.
	opts.File = desc.Path

	a.rebuild(ctx, p, opts)

	if err := a.watcher.Start(ctx, p.Root()); err != nil {
		return zerr.Wrap(err, "failed to start watcher")
	}
	defer func() {
		if err := a.watcher.Stop(); err != nil {
			a.logger.Warn(fmt.Sprintf("failed to stop watcher: %v", err))
		}
	}()
	a.logger.Info("watching " + p.Root())

	for batch := range a.watcher.Events() {
		if ctx.Err() != nil {
			break
		}
		changed := relevantChanges(p, batch)
		if len(changed) == 0 {
			continue
		}
		a.logger.Info(fmt.Sprintf("%d file(s) changed: %s", len(changed), strings.Join(changed, ", ")))

		next, _, err := a.Load(opts.LoadOptions)
		if err != nil {
			a.logger.Error(err)
			continue
		}
		p = next
		a.rebuild(ctx, p, opts)
	}
	return nil
}

func (a *App) rebuild(ctx context.Context, p *project.Project, opts BuildOptions) {
	_, err := a.build(ctx, p, opts)
	switch {
	case err == nil, errors.Is(err, domain.ErrBuildFailed):
	case ctx.Err() != nil:
	default:
		a.logger.Error(err)
	}
}

// relevantChanges returns the changed paths that can affect the build. Declared outputs,
// dependency files, and anything under a build root are written by the build itself.
func relevantChanges(p *project.Project, batch []ports.WatchEvent) []string {
	generated := make(map[string]struct{})
	for n := range p.Graph().Nodes() {
		for _, out := range n.OutputStrings() {
			generated[out] = struct{}{}
		}
		if n.Action.Depfile != "" {
			generated[n.Action.Depfile] = struct{}{}
		}
	}
	roots := p.BuildRoots()

	var changed []string
	for _, ev := range batch {
		if _, ok := generated[ev.Path]; ok {
			continue
		}
		if underAny(ev.Path, roots) {
			continue
		}
		changed = append(changed, ev.Path)
	}
	return changed
}

func underAny(file string, roots []string) bool {
	for _, root := range roots {
		root = path.Clean(root)
		if root == "." {
			continue
		}
		if file == root || strings.HasPrefix(file, root+"/") {
			return true
		}
	}
	return false
}
