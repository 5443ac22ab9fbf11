package ports

import (
	"context"

	"go.trai.ch/bake/internal/core/domain"
)

// StalenessTracker decides whether a node must run and records successful runs.
//
//go:generate mockgen -source=tracker.go -destination=mocks/mock_tracker.go -package=mocks
type StalenessTracker interface {
	// Reset forgets the staleness decisions of the previous run and binds the tracker to root.
	Reset(root string)

	// IsStale reports whether the node needs to run.
	// Any failure to prove freshness counts as stale.
	IsStale(ctx context.Context, node *domain.Node) bool

	// Record persists the node's current fingerprint after its action succeeded.
	Record(ctx context.Context, node *domain.Node) error
}
