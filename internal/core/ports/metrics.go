package ports

import (
	"time"

	"go.trai.ch/bake/internal/core/domain"
)

// Metrics defines the interface for build instrumentation.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// ObserveNode records the final state of one node.
	ObserveNode(res domain.NodeResult)

	// ObserveBuild records the verdict and wall time of a build.
	ObserveBuild(verdict domain.Verdict, elapsed time.Duration)

	// Flush writes the collected metrics to path.
	Flush(path string) error
}
