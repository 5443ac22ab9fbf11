// Package project turns environment and target declarations into a target graph.
package project

import (
	"errors"
	"path"
	"slices"
	"strings"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

// sourceSuffixes lists the file extensions compiled to objects when used as library or program inputs.
var sourceSuffixes = []string{".c", ".cc", ".cpp", ".cxx", ".s", ".S"}

// Project collects environments and the nodes they declare.
type Project struct {
	root      string
	graph     *domain.Graph
	resolver  ports.FileResolver
	toolchain ports.Toolchain

	// producers maps every declared output path to the node that writes it.
	producers map[string]domain.InternedString
	envs      map[string]*Env
}

// New creates an empty project rooted at the given directory.
func New(root string, resolver ports.FileResolver, toolchain ports.Toolchain) *Project {
	g := domain.NewGraph()
	g.SetRoot(root)
	return &Project{
		root:      root,
		graph:     g,
		resolver:  resolver,
		toolchain: toolchain,
		producers: make(map[string]domain.InternedString),
		envs:      make(map[string]*Env),
	}
}

// Root returns the project root directory.
func (p *Project) Root() string {
	return p.root
}

// Graph returns the target graph built so far.
func (p *Project) Graph() *domain.Graph {
	return p.graph
}

// BuildRoots returns the distinct build roots of all declared environments, sorted.
func (p *Project) BuildRoots() []string {
	roots := make([]string, 0, len(p.envs))
	for _, e := range p.envs {
		roots = append(roots, e.BuildRoot())
	}
	slices.Sort(roots)
	return slices.Compact(roots)
}

// Env returns a previously declared environment.
func (p *Project) Env(name string) (*Env, bool) {
	e, ok := p.envs[name]
	return e, ok
}

// NewEnv declares a new root environment.
func (p *Project) NewEnv(name, buildRoot string, configure func(*domain.EnvBuilder)) (*Env, error) {
	env, err := domain.NewEnv(name, buildRoot, configure)
	if err != nil {
		return nil, err
	}
	return p.register(env)
}

func (p *Project) register(env domain.Env) (*Env, error) {
	if _, exists := p.envs[env.Name()]; exists {
		return nil, zerr.With(zerr.Wrap(domain.ErrDuplicateEnvironment, "declare environment"), "environment", env.Name())
	}
	e := &Env{Env: env, project: p}
	p.envs[env.Name()] = e
	return e, nil
}

// add inserts nodes into the graph. Either every node is added or, on error, none is.
func (p *Project) add(nodes ...*domain.Node) error {
	claimed := make(map[string]domain.InternedString)
	for _, n := range nodes {
		if p.graph.Has(n.ID.String()) {
			return zerr.With(zerr.Wrap(domain.ErrDuplicateTarget, "declare target"), "target", n.ID.String())
		}
		for _, out := range n.Outputs {
			name := out.String()
			owner, taken := p.producers[name]
			if !taken {
				owner, taken = claimed[name]
			}
			if !taken && p.graph.Has(name) {
				owner, taken = domain.NewInternedString(name), true
			}
			if taken {
				return zerr.With(
					zerr.With(zerr.Wrap(domain.ErrDuplicateTarget, "declare output"), "target", name),
					"declared_by", owner.String(),
				)
			}
			claimed[name] = n.ID
		}
	}
	for _, n := range nodes {
		if err := p.graph.AddNode(n); err != nil {
			return err
		}
		for _, out := range n.Outputs {
			p.producers[out.String()] = n.ID
		}
	}
	return nil
}

// taken reports whether id is already used as a node ID or declared output.
func (p *Project) taken(id string) bool {
	_, produced := p.producers[id]
	return produced || p.graph.Has(id)
}

// Env is an environment bound to a project. Targets declared through it are added to the project's graph.
type Env struct {
	domain.Env
	project *Project
}

// Derive declares a new environment starting from a copy of e's variables and build root.
func (e *Env) Derive(name string, configure func(*domain.EnvBuilder)) (*Env, error) {
	derived, err := e.Env.Derive(name, configure)
	if err != nil {
		return nil, err
	}
	return e.project.register(derived)
}

// Library declares a static library at buildRoot/name.
// Every source file gets its own object node; the library node depends on all of them.
func (e *Env) Library(name string, sources ...string) (*domain.Node, error) {
	return e.link(domain.KindLibrary, name, sources)
}

// Program declares an executable at buildRoot/name.
// Inputs may be source files, object files, library outputs, or names of outputs under the build root.
func (e *Env) Program(name string, inputs ...string) (*domain.Node, error) {
	return e.link(domain.KindProgram, name, inputs)
}

// CommandSpec describes an arbitrary action node.
type CommandSpec struct {
	// Label identifies the node.
	Label string
	// Inputs are files, globs, or references to other nodes' outputs or labels.
	Inputs []string
	// Outputs are the files the command writes, relative to the project root.
	Outputs []string
	// Argv is the command template. ${KEY} references are expanded from the environment,
	// ${SOURCES} and ${TARGET} from the inputs and outputs.
	Argv []string
	// Terminal schedules the command after all other work, as for test runners.
	Terminal bool
}

// Command declares an arbitrary action node.
func (e *Env) Command(spec CommandSpec) (*domain.Node, error) {
	label := spec.Label
	if e.project.taken(label) {
		return nil, zerr.With(zerr.Wrap(domain.ErrDuplicateTarget, "declare command"), "target", label)
	}

	ins, err := e.resolve(label, spec.Inputs)
	if err != nil {
		return nil, err
	}

	var inputs []string
	var deps []domain.InternedString
	for _, in := range ins {
		if in.path != "" {
			inputs = append(inputs, in.path)
		}
		if in.fromNode {
			deps = append(deps, in.producer)
		}
	}

	outputs := make([]string, 0, len(spec.Outputs))
	for _, out := range spec.Outputs {
		outputs = append(outputs, path.Clean(out))
	}

	vars := e.Vars()
	argv, err := e.project.toolchain.Expand(spec.Argv, vars, map[string][]string{
		"SOURCES": inputs,
		"TARGET":  outputs,
	})
	if err != nil {
		return nil, zerr.With(err, "target", label)
	}
	if len(argv) == 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrEmptyTarget, "command has no action"), "target", label)
	}

	n := &domain.Node{
		ID:           domain.NewInternedString(label),
		Kind:         domain.KindCommand,
		Env:          e.Name(),
		Vars:         vars,
		Inputs:       domain.InternStrings(inputs),
		Dependencies: deps,
		Outputs:      domain.InternStrings(outputs),
		Action:       domain.Action{Argv: argv, Dir: e.project.root},
		Terminal:     spec.Terminal,
	}
	if err := e.project.add(n); err != nil {
		return nil, err
	}
	return n, nil
}

func (e *Env) link(kind domain.NodeKind, name string, patterns []string) (*domain.Node, error) {
	id := e.OutputPath(name)
	if e.project.taken(id) {
		return nil, zerr.With(zerr.Wrap(domain.ErrDuplicateTarget, "declare "+string(kind)), "target", id)
	}

	ins, err := e.resolve(id, patterns)
	if err != nil {
		return nil, err
	}

	var inputs []string
	var deps []domain.InternedString
	var objects []*domain.Node
	for _, in := range ins {
		switch {
		case in.path == "":
			deps = append(deps, in.producer)
		case isSource(in.path):
			obj, fresh, err := e.object(id, in, objects)
			if err != nil {
				return nil, err
			}
			if fresh {
				objects = append(objects, obj)
			}
			inputs = append(inputs, obj.ID.String())
			deps = append(deps, obj.ID)
		default:
			inputs = append(inputs, in.path)
			if in.fromNode {
				deps = append(deps, in.producer)
			}
		}
	}
	inputs = dedupe(inputs)
	if len(inputs) == 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrEmptyTarget, "declare "+string(kind)), "target", id)
	}

	vars := e.Vars()
	var argv []string
	if kind == domain.KindLibrary {
		argv, err = e.project.toolchain.Archive(vars, inputs, id)
	} else {
		argv, err = e.project.toolchain.Link(vars, inputs, id)
	}
	if err != nil {
		return nil, zerr.With(err, "target", id)
	}

	n := &domain.Node{
		ID:           domain.NewInternedString(id),
		Kind:         kind,
		Env:          e.Name(),
		Vars:         vars,
		Inputs:       domain.InternStrings(inputs),
		Dependencies: deps,
		Outputs:      []domain.InternedString{domain.NewInternedString(id)},
		Action:       domain.Action{Argv: argv, Dir: e.project.root},
	}
	if err := e.project.add(append(objects, n)...); err != nil {
		return nil, err
	}
	return n, nil
}

// object returns the compile node for one source file. A node identical to one already declared,
// in the graph or among pending, is returned with fresh set to false.
func (e *Env) object(target string, in input, pending []*domain.Node) (*domain.Node, bool, error) {
	src := in.path
	// Sources generated below the build root keep their location.
	obj := strings.TrimSuffix(src, path.Ext(src)) + ".o"
	if !strings.HasPrefix(src, e.BuildRoot()+"/") {
		obj = e.OutputPath(obj)
	}
	depfile := strings.TrimSuffix(obj, ".o") + ".d"
	id := domain.NewInternedString(obj)

	vars := e.Vars()
	argv, err := e.project.toolchain.Compile(vars, src, obj, depfile)
	if err != nil {
		return nil, false, zerr.With(zerr.With(err, "source", src), "target", target)
	}

	existing, ok := e.project.graph.Node(id)
	if i := slices.IndexFunc(pending, func(n *domain.Node) bool { return n.ID == id }); !ok && i >= 0 {
		existing, ok = pending[i], true
	}
	if ok {
		if existing.Kind == domain.KindObject && slices.Equal(existing.Action.Argv, argv) {
			return existing, false, nil
		}
		return nil, false, zerr.With(
			zerr.With(zerr.Wrap(domain.ErrDuplicateTarget, "declare object"), "target", obj),
			"source", src,
		)
	}

	n := &domain.Node{
		ID:      id,
		Kind:    domain.KindObject,
		Env:     e.Name(),
		Vars:    vars,
		Inputs:  []domain.InternedString{domain.NewInternedString(src)},
		Outputs: []domain.InternedString{id},
		Action:  domain.Action{Argv: argv, Dir: e.project.root, Depfile: depfile},
	}
	if in.fromNode {
		n.Dependencies = []domain.InternedString{in.producer}
	}
	return n, true, nil
}

// input is one resolved declaration input.
type input struct {
	// path is the input file, empty for references to command labels.
	path     string
	producer domain.InternedString
	fromNode bool
}

// resolve classifies declaration inputs. Globs are expanded against the project root; literal
// references match, in order, a declared output, a declared output under the build root,
// a command label, and an existing file.
func (e *Env) resolve(target string, patterns []string) ([]input, error) {
	var out []input
	for _, pattern := range patterns {
		if isGlob(pattern) {
			files, err := e.project.resolver.Expand(e.project.root, []string{pattern})
			if err != nil {
				return nil, zerr.With(err, "target", target)
			}
			for _, f := range files {
				out = append(out, e.project.fileInput(f))
			}
			continue
		}

		in, err := e.lookup(target, pattern)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func (e *Env) lookup(target, ref string) (input, error) {
	clean := path.Clean(ref)
	for _, candidate := range []string{clean, e.OutputPath(clean)} {
		if id, ok := e.project.producers[candidate]; ok {
			return input{path: candidate, producer: id, fromNode: true}, nil
		}
	}
	if e.project.graph.Has(ref) {
		return input{producer: domain.NewInternedString(ref), fromNode: true}, nil
	}

	files, err := e.project.resolver.Expand(e.project.root, []string{clean})
	if err != nil && !errors.Is(err, domain.ErrUnresolvedInput) {
		return input{}, zerr.With(err, "target", target)
	}
	if err != nil || len(files) == 0 {
		return input{}, zerr.With(
			zerr.With(zerr.Wrap(domain.ErrUnresolvedInput, "resolve input"), "input", ref),
			"target", target,
		)
	}
	return input{path: files[0]}, nil
}

func (p *Project) fileInput(file string) input {
	if id, ok := p.producers[file]; ok {
		return input{path: file, producer: id, fromNode: true}
	}
	return input{path: file}
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func isSource(file string) bool {
	return slices.Contains(sourceSuffixes, path.Ext(file))
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
