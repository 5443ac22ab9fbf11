// Package progrock provides the Progrock implementation of the telemetry adapter.
package progrock

import (
	"context"
	"sync"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/bake/internal/core/ports"
)

var _ ports.Telemetry = (*Recorder)(nil)

// Recorder implements ports.Telemetry with one progrock vertex per node.
type Recorder struct {
	w    progrock.Writer
	rec  *progrock.Recorder
	once sync.Once
	err  error
}

// New creates a new Recorder with a default tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Record starts a vertex digested from the node id, so the same node always maps to the same vertex.
func (r *Recorder) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	v := r.rec.Vertex(digest.FromString(name), name)
	vertex := &Vertex{vertex: v}
	return ports.ContextWithVertex(ctx, vertex), vertex
}

// Close closes the underlying writer once, if it can be closed.
func (r *Recorder) Close() error {
	r.once.Do(func() {
		if c, ok := r.w.(interface{ Close() error }); ok {
			r.err = c.Close()
		}
	})
	return r.err
}
