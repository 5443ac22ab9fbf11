// Package toolchain turns environment variables into compiler, archiver, and linker command lines.
package toolchain

import (
	"path"
	"slices"
	"strings"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Toolchain = (*Toolchain)(nil)

// maxDepth bounds nested variable references.
const maxDepth = 16

// Special template variables bound per command.
const (
	SpecialSources = "SOURCES"
	SpecialTarget  = "TARGET"
	SpecialDepfile = "DEPFILE"
)

var (
	compileC = []string{
		"${CC}", "-c", "-o", "${TARGET}", "-MMD", "-MF", "${DEPFILE}",
		"${CPPFLAGS}", "-I${CPPPATH}", "-D${CPPDEFINES}", "${CFLAGS}", "${SOURCES}",
	}
	compileCXX = []string{
		"${CXX}", "-c", "-o", "${TARGET}", "-MMD", "-MF", "${DEPFILE}",
		"${CPPFLAGS}", "-I${CPPPATH}", "-D${CPPDEFINES}", "${CXXFLAGS}", "${SOURCES}",
	}
	archive = []string{"${AR}", "${ARFLAGS}", "${TARGET}", "${SOURCES}"}
	link    = []string{"${CC}", "-o", "${TARGET}", "${LDFLAGS}", "${SOURCES}", "-L${LIBPATH}", "-l${LIBS}"}
)

var cxxSuffixes = []string{".cc", ".cpp", ".cxx"}

// Toolchain builds gcc-style command lines from environment variables.
// Projects may replace the templates through CCCMD, ARCMD and LDCMD.
type Toolchain struct {
	defaults map[domain.Key][]string
}

// New creates a Toolchain with the default tool names.
func New() *Toolchain {
	return &Toolchain{
		defaults: map[domain.Key][]string{
			domain.KeyCC:      {"cc"},
			domain.KeyCXX:     {"c++"},
			domain.KeyAR:      {"ar"},
			domain.KeyARFLAGS: {"rcs"},
		},
	}
}

// Compile returns the command compiling source into object, writing discovered headers to depfile.
func (t *Toolchain) Compile(vars domain.Vars, source, object, depfile string) ([]string, error) {
	template := vars.Get(domain.KeyCCCMD)
	if len(template) == 0 {
		template = compileC
		if slices.Contains(cxxSuffixes, path.Ext(source)) {
			template = compileCXX
		}
	}
	return t.Expand(template, vars, map[string][]string{
		SpecialSources: {source},
		SpecialTarget:  {object},
		SpecialDepfile: {depfile},
	})
}

// Archive returns the command archiving objects into a static library.
func (t *Toolchain) Archive(vars domain.Vars, objects []string, output string) ([]string, error) {
	return t.expandCommand(domain.KeyARCMD, archive, vars, objects, output)
}

// Link returns the command linking inputs into an executable.
func (t *Toolchain) Link(vars domain.Vars, inputs []string, output string) ([]string, error) {
	return t.expandCommand(domain.KeyLDCMD, link, vars, inputs, output)
}

func (t *Toolchain) expandCommand(
	key domain.Key,
	fallback []string,
	vars domain.Vars,
	sources []string,
	target string,
) ([]string, error) {
	template := vars.Get(key)
	if len(template) == 0 {
		template = fallback
	}
	return t.Expand(template, vars, map[string][]string{
		SpecialSources: sources,
		SpecialTarget:  {target},
	})
}

// Expand substitutes ${KEY} references in template.
//
// A reference spanning a whole token is replaced by every token of the variable. A reference
// with surrounding text is distributed over the variable's tokens, so -I${CPPPATH} yields one
// -I flag per include directory. A reference to an empty variable removes the token.
// Specials take precedence over environment variables; referencing a key that is neither
// set nor recognised is an error.
func (t *Toolchain) Expand(template []string, vars domain.Vars, specials map[string][]string) ([]string, error) {
	x := expander{vars: vars, specials: specials, defaults: t.defaults}
	out := make([]string, 0, len(template))
	for _, tok := range template {
		expanded, err := x.token(tok, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

type expander struct {
	vars     domain.Vars
	specials map[string][]string
	defaults map[domain.Key][]string
}

func (x *expander) token(tok string, depth int) ([]string, error) {
	start := strings.Index(tok, "${")
	if start < 0 {
		return []string{tok}, nil
	}
	end := strings.IndexByte(tok[start:], '}')
	if end < 0 {
		return []string{tok}, nil
	}
	end += start
	name := tok[start+2 : end]

	if depth >= maxDepth {
		return nil, zerr.With(zerr.Wrap(domain.ErrRecursiveVariable, "expand template"), "key", name)
	}

	values, err := x.lookup(name)
	if err != nil {
		return nil, err
	}

	var expanded []string
	for _, v := range values {
		vs, err := x.token(v, depth+1)
		if err != nil {
			return nil, err
		}
		expanded = append(expanded, vs...)
	}

	suffixes, err := x.token(tok[end+1:], depth)
	if err != nil {
		return nil, err
	}

	prefix := tok[:start]
	out := make([]string, 0, len(expanded)*len(suffixes))
	for _, v := range expanded {
		for _, s := range suffixes {
			out = append(out, prefix+v+s)
		}
	}
	return out, nil
}

func (x *expander) lookup(name string) ([]string, error) {
	if values, ok := x.specials[name]; ok {
		return values, nil
	}
	key := domain.Key(name)
	if x.vars.Has(key) {
		return x.vars.Get(key), nil
	}
	if values, ok := x.defaults[key]; ok {
		return values, nil
	}
	if key.IsKnown() {
		return nil, nil
	}
	return nil, zerr.With(zerr.Wrap(domain.ErrUnknownVariable, "expand template"), "key", name)
}
