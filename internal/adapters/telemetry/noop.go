// Package telemetry provides telemetry adapters that need no recording backend.
package telemetry

import (
	"context"
	"io"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
)

var _ ports.Telemetry = Noop{}

// Noop is a ports.Telemetry that records nothing.
type Noop struct{}

// Record returns ctx carrying a vertex that discards everything.
func (Noop) Record(ctx context.Context, _ string) (context.Context, ports.Vertex) {
	v := noopVertex{}
	return ports.ContextWithVertex(ctx, v), v
}

// Close does nothing.
func (Noop) Close() error { return nil }

type noopVertex struct{}

func (noopVertex) Stdout() io.Writer           { return io.Discard }
func (noopVertex) Stderr() io.Writer           { return io.Discard }
func (noopVertex) Log(domain.LogLevel, string) {}
func (noopVertex) Cached()                     {}
func (noopVertex) Complete(error)              {}
