// Package fs provides file system adapters for resolving, walking, and hashing files.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
	"slices"

	"go.trai.ch/bake/internal/core/domain"
)

// skippedDirs are never descended into.
var skippedDirs = []string{".git", ".jj", domain.BakeDirName}

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields all files below root, skipping version control and state directories
// and anything matching ignores. Yielded paths include root.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return w.walk(root, ignores, false)
}

// WalkDirs yields root and every directory below it, with the same skipping rules as WalkFiles.
func (w *Walker) WalkDirs(root string, ignores []string) iter.Seq[string] {
	return w.walk(root, ignores, true)
}

func (w *Walker) walk(root string, ignores []string, dirs bool) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if path != root && w.ignored(d, ignores) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() != dirs {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Walker) ignored(d fs.DirEntry, ignores []string) bool {
	name := d.Name()
	if d.IsDir() && slices.Contains(skippedDirs, name) {
		return true
	}
	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}
