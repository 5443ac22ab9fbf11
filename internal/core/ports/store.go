package ports

import "go.trai.ch/bake/internal/core/domain"

// SignatureStore defines the interface for persisting node signatures between runs.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type SignatureStore interface {
	// Get retrieves the signature recorded for a node of the project at root.
	// Returns nil, nil if not found. An unreadable or corrupt record is an ErrStorage error.
	Get(root, nodeID string) (*domain.Signature, error)

	// Put stores the signature, overwriting any previous record for the same node.
	Put(root string, sig domain.Signature) error

	// Clear removes every recorded signature of the project at root.
	Clear(root string) error
}
