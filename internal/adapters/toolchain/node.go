package toolchain

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bake/internal/core/ports"
)

const NodeID graft.ID = "adapter.toolchain"

func init() {
	graft.Register(graft.Node[ports.Toolchain]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.Toolchain, error) {
			return New(), nil
		},
	})
}
