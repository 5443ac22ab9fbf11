// Package watcher implements file system watching for bake watch.
package watcher

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/bake/internal/adapters/fs"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultDebounceWindow is the default time window for debouncing file events.
const DefaultDebounceWindow = 100 * time.Millisecond

const batchBuffer = 16

var _ ports.Watcher = (*Watcher)(nil)

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	walker *fs.Walker
	logger ports.Logger
	window time.Duration

	mu        sync.Mutex
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	root      string
	batches   chan []ports.WatchEvent
	done      chan struct{}
}

// NewWatcher creates a watcher. Nothing is watched until Start.
func NewWatcher(walker *fs.Walker, logger ports.Logger, window time.Duration) *Watcher {
	return &Watcher{walker: walker, logger: logger, window: window}
}

// Start begins watching root and every directory below it.
func (w *Watcher) Start(ctx context.Context, root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fsWatcher != nil {
		return zerr.With(zerr.New("watcher already started"), "root", w.root)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return zerr.Wrap(err, "failed to resolve watch root")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return zerr.Wrap(err, "failed to create file watcher")
	}
	for dir := range w.walker.WalkDirs(abs, nil) {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return zerr.With(zerr.Wrap(err, "failed to watch directory"), "path", dir)
		}
	}

	w.fsWatcher = fsw
	w.root = abs
	w.batches = make(chan []ports.WatchEvent, batchBuffer)
	w.done = make(chan struct{})
	w.debouncer = NewDebouncer(w.window, w.emit)

	go w.processEvents(ctx, fsw)
	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	fsw := w.fsWatcher
	w.mu.Unlock()

	if fsw == nil {
		return nil
	}
	return fsw.Close()
}

// Events yields debounced batches until the watcher stops or its context ends.
func (w *Watcher) Events() iter.Seq[[]ports.WatchEvent] {
	return func(yield func([]ports.WatchEvent) bool) {
		w.mu.Lock()
		batches, done := w.batches, w.done
		w.mu.Unlock()
		if done == nil {
			return
		}

		for {
			select {
			case batch := <-batches:
				if !yield(batch) {
					return
				}
			case <-done:
				return
			}
		}
	}
}

func (w *Watcher) emit(batch []ports.WatchEvent) {
	select {
	case w.batches <- batch:
	case <-w.done:
	}
}

func (w *Watcher) processEvents(ctx context.Context, fsw *fsnotify.Watcher) {
	defer close(w.done)
	defer w.debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			watchEvent, ok := w.convertEvent(event)
			if !ok {
				continue
			}
			w.debouncer.Add(watchEvent)

			if watchEvent.Operation == ports.OpCreate {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					for dir := range w.walker.WalkDirs(event.Name, nil) {
						_ = fsw.Add(dir)
					}
				}
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn(fmt.Sprintf("watcher: file system error: %v", err))
			}
		}
	}
}

// convertEvent maps an fsnotify event to a root-relative change. State directory events are dropped.
func (w *Watcher) convertEvent(event fsnotify.Event) (ports.WatchEvent, bool) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return ports.WatchEvent{}, false
	}
	rel = filepath.ToSlash(rel)
	if rel == domain.BakeDirName || strings.HasPrefix(rel, domain.BakeDirName+"/") {
		return ports.WatchEvent{}, false
	}

	var op ports.WatchOp
	switch {
	case event.Has(fsnotify.Write):
		op = ports.OpWrite
	case event.Has(fsnotify.Create):
		op = ports.OpCreate
	case event.Has(fsnotify.Remove):
		op = ports.OpRemove
	case event.Has(fsnotify.Rename):
		op = ports.OpRename
	default:
		return ports.WatchEvent{}, false
	}
	return ports.WatchEvent{Path: rel, Operation: op}, true
}
