// Package cas implements the persisted signature store.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SignatureStore = (*Store)(nil)

// Store implements ports.SignatureStore using a file-per-node strategy.
// Files are named by the digest of the node ID so concurrent writes for distinct nodes never contend.
type Store struct{}

// NewStore creates a new SignatureStore.
func NewStore() *Store {
	return &Store{}
}

// Get retrieves the signature recorded for a node. It returns nil when none exists.
func (s *Store) Get(root, nodeID string) (*domain.Signature, error) {
	filename := s.filename(root, nodeID)
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(domain.ErrStorage, err.Error()), "path", filename)
	}

	var sig domain.Signature
	if err := json.Unmarshal(data, &sig); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrStorage, "decode signature: "+err.Error()), "path", filename)
	}
	if sig.Node != nodeID {
		return nil, zerr.With(zerr.Wrap(domain.ErrStorage, "signature belongs to "+sig.Node), "path", filename)
	}

	return &sig, nil
}

// Put stores a signature, replacing any earlier one for the same node.
func (s *Store) Put(root string, sig domain.Signature) error {
	data, err := json.MarshalIndent(sig, "", "  ")
	if err != nil {
		return zerr.Wrap(domain.ErrStorage, "encode signature: "+err.Error())
	}

	filename := s.filename(root, sig.Node)
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStorage, err.Error()), "path", dir)
	}

	tmp, err := os.CreateTemp(dir, ".sig-*")
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStorage, err.Error()), "path", dir)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // Already renamed on success

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(domain.ErrStorage, err.Error()), "path", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStorage, err.Error()), "path", tmp.Name())
	}
	if err := os.Chmod(tmp.Name(), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStorage, err.Error()), "path", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStorage, err.Error()), "path", filename)
	}
	return nil
}

// Clear removes every recorded signature below root.
func (s *Store) Clear(root string) error {
	dir := filepath.Join(root, domain.DefaultStorePath())
	if err := os.RemoveAll(dir); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStorage, err.Error()), "path", dir)
	}
	return nil
}

func (s *Store) filename(root, nodeID string) string {
	name := digest.FromString(nodeID).Encoded()
	return filepath.Join(root, domain.DefaultStorePath(), name+".json")
}
