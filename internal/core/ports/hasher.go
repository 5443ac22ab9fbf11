package ports

import "go.trai.ch/bake/internal/core/domain"

// Hasher defines the interface for computing node fingerprints.
//
//go:generate mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// ComputeFingerprint hashes the node's action, its outputs, and the content of every input
	// and discovered header, resolving relative paths against root.
	ComputeFingerprint(node *domain.Node, root string) (string, error)
}
