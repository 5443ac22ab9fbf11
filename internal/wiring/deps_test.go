package wiring_test

import (
	"context"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bake/internal/app"
	_ "go.trai.ch/bake/internal/wiring"
)

// TestComponentsResolve builds the whole node graph the way main does.
func TestComponentsResolve(t *testing.T) {
	components, _, err := graft.ExecuteFor[*app.Components](context.Background())
	require.NoError(t, err)

	assert.NotNil(t, components.App)
	assert.NotNil(t, components.Logger)
	assert.NotNil(t, components.Reporter)
	assert.NotNil(t, components.Telemetry)
	assert.NoError(t, components.Telemetry.Close())
}
