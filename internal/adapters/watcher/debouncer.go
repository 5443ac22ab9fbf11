package watcher

import (
	"maps"
	"slices"
	"sync"
	"time"

	"go.trai.ch/bake/internal/core/ports"
)

// Debouncer coalesces rapid file system events into sorted batches.
// A later event for a path replaces the earlier one.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[string]ports.WatchOp
	timer    *time.Timer
	window   time.Duration
	callback func(batch []ports.WatchEvent)
}

// NewDebouncer creates a new debouncer with the given time window and callback.
func NewDebouncer(window time.Duration, callback func(batch []ports.WatchEvent)) *Debouncer {
	return &Debouncer{
		pending:  make(map[string]ports.WatchOp),
		window:   window,
		callback: callback,
	}
}

// Add records an event and restarts the window.
func (d *Debouncer) Add(event ports.WatchEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[event.Path] = event.Operation
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	batch := d.take()
	d.timer = nil
	d.mu.Unlock()

	if len(batch) > 0 && d.callback != nil {
		go d.callback(batch)
	}
}

// Flush delivers pending events synchronously. It does nothing if the timer already fired.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		if !d.timer.Stop() {
			d.mu.Unlock()
			return
		}
		d.timer = nil
	}
	batch := d.take()
	d.mu.Unlock()

	if len(batch) > 0 && d.callback != nil {
		d.callback(batch)
	}
}

// Stop discards pending events and cancels the timer.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	clear(d.pending)
}

// take empties the pending set. Callers hold mu.
func (d *Debouncer) take() []ports.WatchEvent {
	if len(d.pending) == 0 {
		return nil
	}
	batch := make([]ports.WatchEvent, 0, len(d.pending))
	for _, path := range slices.Sorted(maps.Keys(d.pending)) {
		batch = append(batch, ports.WatchEvent{Path: path, Operation: d.pending[path]})
	}
	clear(d.pending)
	return batch
}
