package domain

import (
	"errors"
	"path"

	"go.trai.ch/zerr"
)

// Env is a named bundle of configuration variables plus a build-output root.
// An Env is immutable once returned by NewEnv or Derive.
type Env struct {
	name      string
	buildRoot string
	vars      Vars
}

// EnvBuilder is handed to configuration callbacks while an Env is under construction.
type EnvBuilder struct {
	name      string
	buildRoot string
	vars      Vars
	errs      error
}

// NewEnv constructs an Env rooted at buildRoot and applies configure to it before returning.
func NewEnv(name, buildRoot string, configure func(*EnvBuilder)) (Env, error) {
	b := &EnvBuilder{name: name, buildRoot: buildRoot, vars: NewVars()}
	return b.build(configure)
}

// Derive returns a new Env starting from a copy of e's variables and build root.
// configure may override the root and append variables; e is left untouched.
func (e Env) Derive(name string, configure func(*EnvBuilder)) (Env, error) {
	b := &EnvBuilder{name: name, buildRoot: e.buildRoot, vars: e.vars.Copy()}
	return b.build(configure)
}

func (b *EnvBuilder) build(configure func(*EnvBuilder)) (Env, error) {
	if configure != nil {
		configure(b)
	}
	if b.errs != nil {
		return Env{}, zerr.With(b.errs, "environment", b.name)
	}
	if b.buildRoot == "" {
		return Env{}, zerr.With(zerr.Wrap(ErrEmptyBuildRoot, "configure environment"), "environment", b.name)
	}
	return Env{
		name:      b.name,
		buildRoot: path.Clean(b.buildRoot),
		vars:      b.vars,
	}, nil
}

// SetBuildRoot overrides the build-output root.
func (b *EnvBuilder) SetBuildRoot(root string) {
	b.buildRoot = root
}

// BuildRoot returns the build root as currently configured.
func (b *EnvBuilder) BuildRoot() string {
	return b.buildRoot
}

// Append adds tokens to the end of key's sequence.
func (b *EnvBuilder) Append(key Key, tokens ...string) {
	b.vars = b.vars.Append(key, tokens...)
}

// AppendNamed parses name as a recognised key and appends tokens to it.
// Unknown names are recorded and reported when the Env is built.
func (b *EnvBuilder) AppendNamed(name string, tokens ...string) {
	key, err := ParseKey(name)
	if err != nil {
		b.errs = errors.Join(b.errs, err)
		return
	}
	b.Append(key, tokens...)
}

// Merge appends every variable of vars.
func (b *EnvBuilder) Merge(vars Vars) {
	b.vars = b.vars.Merge(vars)
}

// Get returns the tokens currently held under key.
func (b *EnvBuilder) Get(key Key) []string {
	return b.vars.Get(key)
}

// Name returns the environment name.
func (e Env) Name() string {
	return e.name
}

// BuildRoot returns the build-output root.
func (e Env) BuildRoot() string {
	return e.buildRoot
}

// Vars returns a copy of the environment's variables.
func (e Env) Vars() Vars {
	return e.vars.Copy()
}

// OutputPath returns name placed under the build root.
func (e Env) OutputPath(name string) string {
	return path.Join(e.buildRoot, name)
}
