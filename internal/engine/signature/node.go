package signature

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bake/internal/adapters/cas"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/bake/internal/adapters/fs"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/bake/internal/adapters/logger" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/bake/internal/core/ports"
)

// NodeID is the unique identifier for the signature tracker Graft node.
const NodeID graft.ID = "engine.signature"

func init() {
	graft.Register(graft.Node[ports.StalenessTracker]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			cas.NodeID,
			fs.HasherNodeID,
			fs.VerifierNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (ports.StalenessTracker, error) {
			store, err := graft.Dep[ports.SignatureStore](ctx)
			if err != nil {
				return nil, err
			}

			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}

			verifier, err := graft.Dep[ports.Verifier](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewTracker(store, hasher, verifier, log), nil
		},
	})
}
