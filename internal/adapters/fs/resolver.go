package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.FileResolver = (*Resolver)(nil)

// Resolver implements the FileResolver interface using doublestar globbing.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Expand resolves file patterns against root.
// A glob that matches nothing contributes nothing; a literal path that does not exist is an error.
func (r *Resolver) Expand(root string, patterns []string) ([]string, error) {
	return r.expand(root, patterns, false)
}

// ExpandDirs resolves directory patterns against root, as used for include paths.
func (r *Resolver) ExpandDirs(root string, patterns []string) ([]string, error) {
	return r.expand(root, patterns, true)
}

func (r *Resolver) expand(root string, patterns []string, dirs bool) ([]string, error) {
	var result []string
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if dirs {
			pattern = strings.TrimSuffix(pattern, "/")
		}

		var (
			matches []string
			err     error
		)
		if isGlob(pattern) {
			matches, err = r.glob(root, pattern, dirs)
		} else {
			matches, err = r.literal(root, pattern, dirs)
		}
		if err != nil {
			return nil, err
		}
		result = append(result, matches...)
	}

	slices.Sort(result)
	return slices.Compact(result), nil
}

func (r *Resolver) glob(root, pattern string, dirs bool) ([]string, error) {
	base, fsysRoot := "", root
	if path.IsAbs(pattern) {
		base, pattern = doublestar.SplitPattern(pattern)
		fsysRoot = base
	}

	var matches []string
	err := doublestar.GlobWalk(os.DirFS(fsysRoot), pattern, func(match string, d iofs.DirEntry) error {
		if d.IsDir() != dirs || isStatePath(match) {
			return nil
		}
		if base != "" {
			match = path.Join(base, match)
		}
		matches = append(matches, match)
		return nil
	})
	if errors.Is(err, doublestar.ErrBadPattern) {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidPattern, "expand pattern"), "pattern", pattern)
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to glob path"), "pattern", pattern)
	}
	return matches, nil
}

func (r *Resolver) literal(root, name string, dir bool) ([]string, error) {
	name = path.Clean(name)
	full := name
	if !path.IsAbs(name) {
		full = filepath.Join(root, filepath.FromSlash(name))
	}

	info, err := os.Stat(full)
	if errors.Is(err, iofs.ErrNotExist) || (err == nil && info.IsDir() != dir) {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnresolvedInput, "input not found"), "path", name)
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrPathStatFailed, err.Error()), "path", full)
	}
	return []string{name}, nil
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// isStatePath reports whether a root-relative path lies inside the state directory.
func isStatePath(p string) bool {
	return p == domain.BakeDirName || strings.HasPrefix(p, domain.BakeDirName+"/")
}
