package app

import (
	"fmt"
	"io"
	"strconv"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/zerr"
)

// GraphOptions configures Graph.
type GraphOptions struct {
	LoadOptions
	// Targets restricts the output to these node IDs and their dependencies.
	Targets []string
	// DOT selects Graphviz output instead of the topological listing.
	DOT bool
}

var dotShapes = map[domain.NodeKind]string{
	domain.KindObject:  "ellipse",
	domain.KindLibrary: "box3d",
	domain.KindProgram: "box",
	domain.KindCommand: "hexagon",
}

// Graph writes the target graph to w, dependencies first.
func (a *App) Graph(w io.Writer, opts GraphOptions) error {
	p, _, err := a.Load(opts.LoadOptions)
	if err != nil {
		return err
	}

	order, err := p.Graph().TopologicalOrder()
	if err != nil {
		return err
	}
	if len(opts.Targets) > 0 {
		closure, err := p.Graph().Closure(opts.Targets)
		if err != nil {
			return err
		}
		selected := order[:0]
		for _, n := range order {
			if _, ok := closure[n.ID]; ok {
				selected = append(selected, n)
			}
		}
		order = selected
	}

	if opts.DOT {
		err = writeDOT(w, order)
	} else {
		err = writeListing(w, order)
	}
	if err != nil {
		return zerr.Wrap(err, "failed to write graph")
	}
	return nil
}

func writeListing(w io.Writer, order []*domain.Node) error {
	for _, n := range order {
		if _, err := fmt.Fprintf(w, "%-8s %s\n", n.Kind, n.ID); err != nil {
			return err
		}
	}
	return nil
}

// writeDOT renders nodes with edges pointing from a dependent to its dependencies.
func writeDOT(w io.Writer, order []*domain.Node) error {
	lines := []string{"digraph bake {", "  rankdir=LR;"}
	for _, n := range order {
		lines = append(lines, fmt.Sprintf("  %s [shape=%s];", strconv.Quote(n.ID.String()), dotShapes[n.Kind]))
	}
	for _, n := range order {
		for _, dep := range n.Dependencies {
			lines = append(lines, fmt.Sprintf("  %s -> %s;", strconv.Quote(n.ID.String()), strconv.Quote(dep.String())))
		}
	}
	lines = append(lines, "}")
	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}
