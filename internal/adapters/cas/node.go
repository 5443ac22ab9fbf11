package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bake/internal/core/ports"
)

const NodeID graft.ID = "adapter.signature_store"

func init() {
	graft.Register(graft.Node[ports.SignatureStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.SignatureStore, error) {
			return NewStore(), nil
		},
	})
}
