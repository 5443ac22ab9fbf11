package watcher_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bake/internal/adapters/watcher"
	"go.trai.ch/bake/internal/core/ports"
)

type batchRecorder struct {
	mu      sync.Mutex
	batches [][]ports.WatchEvent
}

func (r *batchRecorder) record(batch []ports.WatchEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, batch)
}

func (r *batchRecorder) get() [][]ports.WatchEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches
}

func write(path string) ports.WatchEvent {
	return ports.WatchEvent{Path: path, Operation: ports.OpWrite}
}

func TestDebouncer_CoalescesAndSorts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var rec batchRecorder
		d := watcher.NewDebouncer(100*time.Millisecond, rec.record)

		d.Add(write("source/b.c"))
		d.Add(write("main.c"))
		d.Add(write("source/b.c"))

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		batches := rec.get()
		require.Len(t, batches, 1)
		assert.Equal(t, []ports.WatchEvent{write("main.c"), write("source/b.c")}, batches[0])
	})
}

func TestDebouncer_LastOperationWins(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var rec batchRecorder
		d := watcher.NewDebouncer(100*time.Millisecond, rec.record)

		d.Add(ports.WatchEvent{Path: "gen.c", Operation: ports.OpCreate})
		d.Add(ports.WatchEvent{Path: "gen.c", Operation: ports.OpRemove})

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		batches := rec.get()
		require.Len(t, batches, 1)
		assert.Equal(t, []ports.WatchEvent{{Path: "gen.c", Operation: ports.OpRemove}}, batches[0])
	})
}

func TestDebouncer_TimerReset(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var rec batchRecorder
		d := watcher.NewDebouncer(100*time.Millisecond, rec.record)

		d.Add(write("a.c"))
		time.Sleep(50 * time.Millisecond)
		d.Add(write("b.c"))
		time.Sleep(50 * time.Millisecond)
		synctest.Wait()

		assert.Empty(t, rec.get())

		time.Sleep(60 * time.Millisecond)
		synctest.Wait()

		batches := rec.get()
		require.Len(t, batches, 1)
		assert.Len(t, batches[0], 2)
	})
}

func TestDebouncer_Flush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var rec batchRecorder
		d := watcher.NewDebouncer(100*time.Millisecond, rec.record)

		d.Add(write("a.c"))
		d.Flush()

		require.Len(t, rec.get(), 1)

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()
		assert.Len(t, rec.get(), 1, "flushed events are not delivered twice")
	})
}

func TestDebouncer_FlushEmpty(t *testing.T) {
	var rec batchRecorder
	d := watcher.NewDebouncer(100*time.Millisecond, rec.record)

	d.Flush()

	assert.Empty(t, rec.get())
}

func TestDebouncer_Stop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var rec batchRecorder
		d := watcher.NewDebouncer(100*time.Millisecond, rec.record)

		d.Add(write("a.c"))
		d.Stop()

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()
		assert.Empty(t, rec.get())
	})
}

func TestDebouncer_NilCallback(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		d := watcher.NewDebouncer(50*time.Millisecond, nil)

		d.Add(write("a.c"))
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()
		d.Flush()
	})
}
