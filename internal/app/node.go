package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bake/internal/adapters/cas"                //nolint:depguard // Wired in app layer
	"go.trai.ch/bake/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/bake/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/bake/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/bake/internal/adapters/metrics"            //nolint:depguard // Wired in app layer
	"go.trai.ch/bake/internal/adapters/report"             //nolint:depguard // Wired in app layer
	"go.trai.ch/bake/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/bake/internal/adapters/toolchain"          //nolint:depguard // Wired in app layer
	"go.trai.ch/bake/internal/adapters/watcher"            //nolint:depguard // Wired in app layer
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/engine/scheduler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			fs.ResolverNodeID,
			toolchain.NodeID,
			scheduler.NodeID,
			report.NodeID,
			metrics.NodeID,
			cas.NodeID,
			watcher.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			report.NodeID,
			progrock.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	resolver, err := graft.Dep[ports.FileResolver](ctx)
	if err != nil {
		return nil, err
	}

	tc, err := graft.Dep[ports.Toolchain](ctx)
	if err != nil {
		return nil, err
	}

	sched, err := graft.Dep[*scheduler.Scheduler](ctx)
	if err != nil {
		return nil, err
	}

	reporter, err := graft.Dep[ports.Reporter](ctx)
	if err != nil {
		return nil, err
	}

	m, err := graft.Dep[ports.Metrics](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.SignatureStore](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, resolver, tc, sched, reporter, m, store, w, log), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	a, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	reporter, err := graft.Dep[ports.Reporter](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:       a,
		Logger:    log,
		Reporter:  reporter,
		Telemetry: telemetry,
	}, nil
}
