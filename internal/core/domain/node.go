package domain

// NodeKind classifies the work a node performs.
type NodeKind string

const (
	// KindObject compiles one source file into an object file.
	KindObject NodeKind = "object"
	// KindLibrary archives object files into a static library.
	KindLibrary NodeKind = "library"
	// KindProgram links inputs into an executable.
	KindProgram NodeKind = "program"
	// KindCommand runs an arbitrary command.
	KindCommand NodeKind = "command"
)

// Action is the literal process invocation a node runs.
type Action struct {
	// Argv is the program followed by its arguments.
	Argv []string
	// Dir is the working directory, normally the project root.
	Dir string
	// Env holds extra process environment entries applied over the system environment.
	Env map[string]string
	// Depfile is a compiler-written dependency file listing discovered headers.
	Depfile string
}

// Node represents a single buildable artifact or action in the target graph.
// It uses InternedString for identifiers that are frequently repeated across nodes.
type Node struct {
	// ID is the node's output path, or its label for commands.
	ID   InternedString
	Kind NodeKind
	// Env is the name of the environment the node was declared under.
	Env string
	// Vars is the environment's variable snapshot at declaration time.
	Vars Vars
	// Inputs lists source files and node outputs in declaration order.
	Inputs []InternedString
	// Dependencies lists the IDs of nodes among Inputs, plus any explicit ordering edges.
	Dependencies []InternedString
	// Outputs lists the files the action produces.
	Outputs []InternedString
	Action  Action
	// Terminal marks nodes that run after all other work, such as test runners.
	Terminal bool
}

// InputStrings returns the node's inputs as plain strings.
func (n *Node) InputStrings() []string {
	return internedToStrings(n.Inputs)
}

// OutputStrings returns the node's outputs as plain strings.
func (n *Node) OutputStrings() []string {
	return internedToStrings(n.Outputs)
}

// DependsOn reports whether id is among the node's dependencies.
func (n *Node) DependsOn(id InternedString) bool {
	for _, dep := range n.Dependencies {
		if dep == id {
			return true
		}
	}
	return false
}

// InternStrings converts plain strings to InternedStrings.
func InternStrings(strs []string) []InternedString {
	if len(strs) == 0 {
		return nil
	}
	res := make([]InternedString, len(strs))
	for i, s := range strs {
		res[i] = NewInternedString(s)
	}
	return res
}

func internedToStrings(in []InternedString) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = s.String()
	}
	return out
}
