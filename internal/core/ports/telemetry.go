package ports

import (
	"context"
	"io"

	"go.trai.ch/bake/internal/core/domain"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Telemetry records the progress of node executions.
type Telemetry interface {
	// Record starts a vertex for the named unit of work.
	Record(ctx context.Context, name string) (context.Context, Vertex)
	// Close flushes and ends the recording session.
	Close() error
}

// Vertex is one unit of work in a recording session.
type Vertex interface {
	// Stdout returns a writer for the standard output stream.
	Stdout() io.Writer
	// Stderr returns a writer for the error output stream.
	Stderr() io.Writer
	// Log records a message associated with this vertex.
	Log(level domain.LogLevel, msg string)
	// Cached marks the vertex as up to date.
	Cached()
	// Complete marks the vertex as finished.
	Complete(err error)
}

type vertexKey struct{}

// ContextWithVertex returns a copy of ctx carrying v.
func ContextWithVertex(ctx context.Context, v Vertex) context.Context {
	return context.WithValue(ctx, vertexKey{}, v)
}

// VertexFromContext returns the vertex carried by ctx, if any.
func VertexFromContext(ctx context.Context) (Vertex, bool) {
	v, ok := ctx.Value(vertexKey{}).(Vertex)
	return v, ok
}
