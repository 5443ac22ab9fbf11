// Package domain contains the core domain models and business logic for the target graph.
package domain

import (
	"iter"
	"slices"

	"go.trai.ch/zerr"
)

// Graph represents a dependency graph of build nodes.
type Graph struct {
	root       string
	nodes      map[InternedString]*Node
	seq        map[InternedString]int
	order      []InternedString
	dependents map[InternedString][]InternedString
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:      make(map[InternedString]*Node),
		seq:        make(map[InternedString]int),
		dependents: make(map[InternedString][]InternedString),
	}
}

// SetRoot sets the project root directory the graph's paths are relative to.
func (g *Graph) SetRoot(path string) {
	g.root = path
}

// Root returns the project root directory.
func (g *Graph) Root() string {
	return g.root
}

// AddNode adds a node to the graph.
// It returns an error if a node with the same ID already exists.
func (g *Graph) AddNode(n *Node) error {
	if _, exists := g.nodes[n.ID]; exists {
		return zerr.With(zerr.Wrap(ErrDuplicateTarget, "add node"), "target", n.ID.String())
	}

	deps := make([]InternedString, 0, len(n.Dependencies))
	for _, dep := range n.Dependencies {
		if !slices.Contains(deps, dep) {
			deps = append(deps, dep)
		}
	}
	stored := *n
	stored.Dependencies = deps

	g.nodes[n.ID] = &stored
	g.seq[n.ID] = len(g.order)
	g.order = append(g.order, n.ID)
	for _, dep := range deps {
		g.dependents[dep] = append(g.dependents[dep], n.ID)
	}
	return nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id InternedString) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Has reports whether a node with the given ID exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[NewInternedString(id)]
	return ok
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns an iterator over the nodes in declaration order.
func (g *Graph) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, id := range g.order {
			if !yield(g.nodes[id]) {
				return
			}
		}
	}
}

// DependentsOf returns the IDs of nodes that list id as a dependency, in declaration order.
func (g *Graph) DependentsOf(id InternedString) []InternedString {
	return slices.Clone(g.dependents[id])
}

// Seq returns the declaration index of id, or -1 when absent.
func (g *Graph) Seq(id InternedString) int {
	if s, ok := g.seq[id]; ok {
		return s
	}
	return -1
}

// Validate checks that every dependency exists and that the graph is acyclic.
// Nodes are visited in declaration order so the reported cycle is deterministic.
func (g *Graph) Validate() error {
	visited := make(map[InternedString]int, len(g.nodes)) // 0: unvisited, 1: visiting, 2: visited
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		visited[u] = 1
		path = append(path, u)

		for _, dep := range g.nodes[u].Dependencies {
			if _, exists := g.nodes[dep]; !exists {
				return zerr.With(
					zerr.With(zerr.Wrap(ErrUnresolvedInput, "validate graph"), "dependency", dep.String()),
					"target", u.String(),
				)
			}
			if visited[dep] == 1 {
				return g.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		return nil
	}

	for _, id := range g.order {
		if visited[id] == 0 {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []InternedString, dep InternedString) error {
	cyclePath := ""
	startIdx := -1
	for i, node := range path {
		if node == dep {
			startIdx = i
			break
		}
	}
	for i := startIdx; i < len(path); i++ {
		cyclePath += path[i].String() + " -> "
	}
	cyclePath += dep.String()
	return zerr.With(zerr.Wrap(ErrCyclicDependency, "validate graph"), "cycle", cyclePath)
}

// TopologicalOrder returns every node after all of its dependencies.
// Among nodes that are ready at the same time, the earlier-declared node comes first.
func (g *Graph) TopologicalOrder() ([]*Node, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	inDegree := make(map[InternedString]int, len(g.nodes))
	var ready []int
	for i, id := range g.order {
		inDegree[id] = len(g.nodes[id].Dependencies)
		if inDegree[id] == 0 {
			ready = append(ready, i)
		}
	}

	result := make([]*Node, 0, len(g.nodes))
	for len(ready) > 0 {
		id := g.order[ready[0]]
		ready = ready[1:]
		result = append(result, g.nodes[id])

		for _, dependent := range g.dependents[id] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				s := g.seq[dependent]
				pos, _ := slices.BinarySearch(ready, s)
				ready = slices.Insert(ready, pos, s)
			}
		}
	}
	return result, nil
}

// Closure returns the given targets plus all of their transitive dependencies.
func (g *Graph) Closure(ids []string) (map[InternedString]struct{}, error) {
	closure := make(map[InternedString]struct{}, len(g.nodes))
	stack := make([]InternedString, 0, len(ids))
	for _, id := range ids {
		in := NewInternedString(id)
		if _, ok := g.nodes[in]; !ok {
			return nil, zerr.With(zerr.Wrap(ErrNodeNotFound, "select targets"), "target", id)
		}
		stack = append(stack, in)
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := closure[id]; seen {
			continue
		}
		closure[id] = struct{}{}
		if n, ok := g.nodes[id]; ok {
			stack = append(stack, n.Dependencies...)
		}
	}
	return closure, nil
}
