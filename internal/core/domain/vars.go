package domain

import (
	"maps"
	"slices"

	"go.trai.ch/zerr"
)

// Key names a configuration variable held by an environment.
type Key string

// Recognised configuration keys.
const (
	KeyCC         Key = "CC"
	KeyCXX        Key = "CXX"
	KeyAR         Key = "AR"
	KeyCFLAGS     Key = "CFLAGS"
	KeyCXXFLAGS   Key = "CXXFLAGS"
	KeyCPPFLAGS   Key = "CPPFLAGS"
	KeyCPPPATH    Key = "CPPPATH"
	KeyCPPDEFINES Key = "CPPDEFINES"
	KeyLDFLAGS    Key = "LDFLAGS"
	KeyLIBPATH    Key = "LIBPATH"
	KeyLIBS       Key = "LIBS"
	KeyARFLAGS    Key = "ARFLAGS"

	// Command templates. Their tokens may reference other keys as ${KEY}.
	KeyCCCMD Key = "CCCMD"
	KeyARCMD Key = "ARCMD"
	KeyLDCMD Key = "LDCMD"
)

var knownKeys = map[Key]struct{}{
	KeyCC: {}, KeyCXX: {}, KeyAR: {},
	KeyCFLAGS: {}, KeyCXXFLAGS: {}, KeyCPPFLAGS: {},
	KeyCPPPATH: {}, KeyCPPDEFINES: {},
	KeyLDFLAGS: {}, KeyLIBPATH: {}, KeyLIBS: {}, KeyARFLAGS: {},
	KeyCCCMD: {}, KeyARCMD: {}, KeyLDCMD: {},
}

// ParseKey returns the Key for name, rejecting names outside the recognised set.
func ParseKey(name string) (Key, error) {
	k := Key(name)
	if _, ok := knownKeys[k]; !ok {
		return "", zerr.With(zerr.Wrap(ErrUnknownVariable, "parse variable key"), "key", name)
	}
	return k, nil
}

// ToolKey admits a toolchain-specific key that is not part of the recognised set.
func ToolKey(name string) Key {
	return Key(name)
}

// IsKnown reports whether k belongs to the recognised key set.
func (k Key) IsKnown() bool {
	_, ok := knownKeys[k]
	return ok
}

// String returns the key name.
func (k Key) String() string {
	return string(k)
}

// Vars is an immutable mapping from Key to an ordered token sequence.
// Every mutation returns a new value; the receiver is never modified.
type Vars struct {
	m map[Key][]string
}

// NewVars returns an empty variable store.
func NewVars() Vars {
	return Vars{}
}

// Append returns a copy of v with tokens added at the end of key's sequence.
// Appending no tokens returns v unchanged.
func (v Vars) Append(key Key, tokens ...string) Vars {
	if len(tokens) == 0 {
		return v
	}
	next := v.Copy()
	if next.m == nil {
		next.m = make(map[Key][]string, 1)
	}
	next.m[key] = append(next.m[key], tokens...)
	return next
}

// Get returns a copy of the tokens held under key, or an empty slice.
func (v Vars) Get(key Key) []string {
	return slices.Clone(v.m[key])
}

// Has reports whether key has been set.
func (v Vars) Has(key Key) bool {
	_, ok := v.m[key]
	return ok
}

// Copy returns a deep copy of v.
func (v Vars) Copy() Vars {
	if v.m == nil {
		return Vars{}
	}
	m := make(map[Key][]string, len(v.m))
	for k, tokens := range v.m {
		m[k] = slices.Clone(tokens)
	}
	return Vars{m: m}
}

// Merge returns a copy of v with every key of other appended after v's tokens.
func (v Vars) Merge(other Vars) Vars {
	next := v
	for _, k := range other.Keys() {
		next = next.Append(k, other.m[k]...)
	}
	return next
}

// Keys returns the keys present in v in sorted order.
func (v Vars) Keys() []Key {
	return slices.Sorted(maps.Keys(v.m))
}

// Len returns the number of keys in v.
func (v Vars) Len() int {
	return len(v.m)
}
