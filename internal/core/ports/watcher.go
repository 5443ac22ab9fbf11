package ports

import (
	"context"
	"iter"
)

// WatchOp represents the type of file system operation.
type WatchOp uint8

const (
	// OpCreate indicates a file or directory was created.
	OpCreate WatchOp = iota
	// OpWrite indicates a file was modified.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
)

// WatchEvent is a change to a file under the watched root.
type WatchEvent struct {
	// Path is slash-separated and relative to the watched root.
	Path      string
	Operation WatchOp
}

// Watcher defines the interface for watching a project tree for changes.
type Watcher interface {
	// Start begins watching root recursively. The state directory is never watched.
	Start(ctx context.Context, root string) error
	// Stop stops the watcher and releases all resources.
	Stop() error
	// Events yields batches of changes until the watcher is stopped. Changes that
	// arrive within the debounce window form one batch, sorted by path, with each
	// path reported once.
	Events() iter.Seq[[]WatchEvent]
}
