package app

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// CleanOptions configures Clean.
type CleanOptions struct {
	LoadOptions
	// All also forgets every recorded signature, forcing a full rebuild.
	All bool
}

// Clean removes the outputs and dependency files of every declared node.
// Files that do not exist are ignored.
func (a *App) Clean(ctx context.Context, opts CleanOptions) error {
	p, _, err := a.Load(opts.LoadOptions)
	if err != nil {
		return err
	}

	var paths []string
	for n := range p.Graph().Nodes() {
		paths = append(paths, n.OutputStrings()...)
		if n.Action.Depfile != "" {
			paths = append(paths, n.Action.Depfile)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return removeOutput(filepath.Join(p.Root(), filepath.FromSlash(path)))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if opts.All {
		if err := a.store.Clear(p.Root()); err != nil {
			return zerr.Wrap(err, "failed to clear signatures")
		}
	}
	a.logger.Info("cleaned " + p.Root())
	return nil
}

func removeOutput(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(domain.ErrFailedToCleanOutput, err.Error()), "path", path)
	}
	return nil
}
