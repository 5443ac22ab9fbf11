package ports

// Verifier defines the interface for verifying file existence.
//
//go:generate mockgen -source=verifier.go -destination=mocks/mock_verifier.go -package=mocks
type Verifier interface {
	// VerifyOutputs checks if all output files exist in the given root directory.
	VerifyOutputs(root string, outputs []string) (bool, error)
}
