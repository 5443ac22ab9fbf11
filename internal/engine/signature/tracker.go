// Package signature decides which nodes are up to date.
package signature

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

// Tracker implements ports.StalenessTracker on top of a signature store.
//
// A node is stale when it has no record, when its fingerprint differs from the record, when one
// of its outputs is missing, when any of its dependencies was found stale earlier in the run, or
// when a dependency has been recorded with a different fingerprint since the node last succeeded.
type Tracker struct {
	store    ports.SignatureStore
	hasher   ports.Hasher
	verifier ports.Verifier
	logger   ports.Logger

	mu    sync.Mutex
	root  string
	stale map[domain.InternedString]struct{}
}

// NewTracker creates a new Tracker.
func NewTracker(
	store ports.SignatureStore,
	hasher ports.Hasher,
	verifier ports.Verifier,
	logger ports.Logger,
) *Tracker {
	return &Tracker{
		store:    store,
		hasher:   hasher,
		verifier: verifier,
		logger:   logger,
		stale:    make(map[domain.InternedString]struct{}),
	}
}

// Reset forgets the staleness decisions of the previous run and binds the tracker to root.
func (t *Tracker) Reset(root string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.root = root
	clear(t.stale)
}

// IsStale reports whether the node needs to run.
func (t *Tracker) IsStale(_ context.Context, node *domain.Node) bool {
	stale := t.check(node)
	if stale {
		t.mu.Lock()
		t.stale[node.ID] = struct{}{}
		t.mu.Unlock()
	}
	return stale
}

func (t *Tracker) check(node *domain.Node) bool {
	t.mu.Lock()
	root := t.root
	for _, dep := range node.Dependencies {
		if _, ok := t.stale[dep]; ok {
			t.mu.Unlock()
			return true
		}
	}
	t.mu.Unlock()

	fingerprint, err := t.hasher.ComputeFingerprint(node, root)
	if err != nil {
		return true
	}

	sig, err := t.store.Get(root, node.ID.String())
	if err != nil {
		if errors.Is(err, domain.ErrStorage) {
			t.logger.Warn(zerr.With(err, "node", node.ID.String()).Error())
		}
		return true
	}
	if sig == nil || sig.Version != domain.SignatureVersion || sig.Fingerprint != fingerprint {
		return true
	}

	deps, err := t.dependencyFingerprints(root, node)
	if err != nil || !maps.Equal(deps, sig.Dependencies) {
		return true
	}

	if len(node.Outputs) > 0 {
		ok, err := t.verifier.VerifyOutputs(root, node.OutputStrings())
		if err != nil || !ok {
			return true
		}
	}
	return false
}

// Record persists the node's current fingerprint. It is called once after each successful run.
func (t *Tracker) Record(_ context.Context, node *domain.Node) error {
	t.mu.Lock()
	root := t.root
	t.mu.Unlock()

	fingerprint, err := t.hasher.ComputeFingerprint(node, root)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "record signature"), "node", node.ID.String())
	}

	deps, err := t.dependencyFingerprints(root, node)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "record signature"), "node", node.ID.String())
	}

	return t.store.Put(root, domain.Signature{
		Version:      domain.SignatureVersion,
		Node:         node.ID.String(),
		Fingerprint:  fingerprint,
		Dependencies: deps,
		Timestamp:    time.Now(),
	})
}

// dependencyFingerprints returns the recorded fingerprint of every dependency of node.
// A dependency without a record maps to the empty string.
func (t *Tracker) dependencyFingerprints(root string, node *domain.Node) (map[string]string, error) {
	if len(node.Dependencies) == 0 {
		return nil, nil
	}
	deps := make(map[string]string, len(node.Dependencies))
	for _, dep := range node.Dependencies {
		sig, err := t.store.Get(root, dep.String())
		if err != nil {
			return nil, err
		}
		if sig != nil {
			deps[dep.String()] = sig.Fingerprint
		} else {
			deps[dep.String()] = ""
		}
	}
	return deps, nil
}
