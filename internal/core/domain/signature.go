package domain

import "time"

// SignatureVersion is the current on-disk signature format.
const SignatureVersion = 2

// Signature is the persisted fingerprint of a node's inputs at its last successful run.
type Signature struct {
	Version     int    `json:"version,omitzero"`
	Node        string `json:"node,omitzero"`
	Fingerprint string `json:"fingerprint,omitzero"`
	// Dependencies maps each dependency's node ID to the fingerprint it had recorded when this
	// node last succeeded.
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Timestamp    time.Time         `json:"timestamp,omitzero"`
}
