package fs

import (
	"errors"
	iofs "io/fs"
	"os"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Verifier = (*Verifier)(nil)

// Verifier checks that declared outputs exist on disk.
type Verifier struct{}

// NewVerifier creates a new Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// VerifyOutputs reports whether every output exists below root.
func (v *Verifier) VerifyOutputs(root string, outputs []string) (bool, error) {
	for _, output := range outputs {
		path := absPath(root, output)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, iofs.ErrNotExist) {
				return false, nil
			}
			return false, zerr.With(zerr.Wrap(domain.ErrPathStatFailed, err.Error()), "path", path)
		}
	}
	return true, nil
}
