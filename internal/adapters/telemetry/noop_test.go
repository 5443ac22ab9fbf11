package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bake/internal/adapters/telemetry"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
)

func TestNoop(t *testing.T) {
	var rec telemetry.Noop

	ctx, vertex := rec.Record(context.Background(), "build/a.o")

	fromCtx, ok := ports.VertexFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, vertex, fromCtx)

	n, err := vertex.Stdout().Write([]byte("out"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	vertex.Log(domain.LogLevelInfo, "msg")
	vertex.Cached()
	vertex.Complete(errors.New("boom"))
	assert.NoError(t, rec.Close())
}
