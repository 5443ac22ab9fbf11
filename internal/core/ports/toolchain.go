package ports

import "go.trai.ch/bake/internal/core/domain"

// Toolchain turns an environment's variables and a node's files into literal command lines.
//
//go:generate mockgen -source=toolchain.go -destination=mocks/mock_toolchain.go -package=mocks
type Toolchain interface {
	// Compile returns the argv compiling source into object, writing header dependencies to depfile.
	Compile(vars domain.Vars, source, object, depfile string) ([]string, error)

	// Archive returns the argv bundling objects into a static library.
	Archive(vars domain.Vars, objects []string, output string) ([]string, error)

	// Link returns the argv linking inputs into an executable.
	Link(vars domain.Vars, inputs []string, output string) ([]string, error)

	// Expand substitutes ${KEY} references in a command template.
	Expand(template []string, vars domain.Vars, specials map[string][]string) ([]string, error)
}
