package scheduler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bake/internal/adapters/logger"             //nolint:depguard // Wired in engine wiring
	"go.trai.ch/bake/internal/adapters/metrics"            //nolint:depguard // Wired in engine wiring
	"go.trai.ch/bake/internal/adapters/shell"              //nolint:depguard // Wired in engine wiring
	"go.trai.ch/bake/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/engine/signature"
)

// NodeID is the unique identifier for the scheduler Graft node.
const NodeID graft.ID = "engine.scheduler"

func init() {
	graft.Register(graft.Node[*Scheduler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			shell.NodeID,
			signature.NodeID,
			progrock.NodeID,
			metrics.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Scheduler, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}

			tracker, err := graft.Dep[ports.StalenessTracker](ctx)
			if err != nil {
				return nil, err
			}

			telemetry, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}

			m, err := graft.Dep[ports.Metrics](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewScheduler(executor, tracker, telemetry, m, log), nil
		},
	})
}
