package project_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bake/internal/adapters/fs"
	"go.trai.ch/bake/internal/adapters/toolchain"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports/mocks"
	"go.trai.ch/bake/internal/engine/project"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func newProject(t *testing.T, files ...string) *project.Project {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
		require.NoError(t, os.WriteFile(path, []byte("/* "+f+" */\n"), 0o600))
	}
	return project.New(root, fs.NewResolver(), toolchain.New())
}

func withCFLAGS(flags ...string) func(*domain.EnvBuilder) {
	return func(b *domain.EnvBuilder) {
		b.Append(domain.KeyCFLAGS, flags...)
	}
}

func node(t *testing.T, p *project.Project, id string) *domain.Node {
	t.Helper()
	n, ok := p.Graph().Node(domain.NewInternedString(id))
	require.True(t, ok, "node %s not declared", id)
	return n
}

func ids(nodes []*domain.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID.String()
	}
	return out
}

func metadata(t *testing.T, err error) map[string]any {
	t.Helper()
	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	return zErr.Metadata()
}

func TestProject_LibraryAndProgram(t *testing.T) {
	p := newProject(t, "a.c", "b.c", "main.c")
	env, err := p.NewEnv("E", "build", withCFLAGS("-O0"))
	require.NoError(t, err)

	lib, err := env.Library("libonward.a", "a.c", "b.c")
	require.NoError(t, err)
	prog, err := env.Program("onward", "main.c", "libonward.a")
	require.NoError(t, err)

	assert.Equal(t, 5, p.Graph().Len())

	assert.Equal(t, "build/libonward.a", lib.ID.String())
	assert.Equal(t, domain.KindLibrary, lib.Kind)
	assert.Equal(t, []string{"build/a.o", "build/b.o"}, lib.InputStrings())
	assert.Equal(t, domain.InternStrings([]string{"build/a.o", "build/b.o"}), lib.Dependencies)

	assert.Equal(t, "build/onward", prog.ID.String())
	assert.Equal(t, []string{"build/main.o", "build/libonward.a"}, prog.InputStrings())
	assert.Equal(t, domain.InternStrings([]string{"build/main.o", "build/libonward.a"}), prog.Dependencies)

	edges := len(lib.Dependencies) + len(prog.Dependencies)
	assert.Equal(t, 4, edges)

	obj := node(t, p, "build/a.o")
	assert.Equal(t, domain.KindObject, obj.Kind)
	assert.Empty(t, obj.Dependencies)
	assert.Equal(t, "build/a.d", obj.Action.Depfile)
	assert.Equal(t, p.Root(), obj.Action.Dir)
	assert.Equal(t, []string{"cc", "-c", "-o", "build/a.o", "-MMD", "-MF", "build/a.d", "-O0", "a.c"}, obj.Action.Argv)

	assert.Equal(t, []string{"ar", "rcs", "build/libonward.a", "build/a.o", "build/b.o"}, lib.Action.Argv)
	assert.Equal(t, []string{"cc", "-o", "build/onward", "build/main.o", "build/libonward.a"}, prog.Action.Argv)

	order, err := p.Graph().TopologicalOrder()
	require.NoError(t, err)
	got := ids(order)
	for _, edge := range [][2]string{
		{"build/a.o", "build/libonward.a"},
		{"build/b.o", "build/libonward.a"},
		{"build/main.o", "build/onward"},
		{"build/libonward.a", "build/onward"},
	} {
		assert.Less(t, slices.Index(got, edge[0]), slices.Index(got, edge[1]), "%s must precede %s", edge[0], edge[1])
	}
}

func TestProject_DerivedEnvironmentsAreIndependent(t *testing.T) {
	p := newProject(t, "a.c")
	debug, err := p.NewEnv("debug", "build/debug", withCFLAGS("-O0"))
	require.NoError(t, err)
	release, err := debug.Derive("release", func(b *domain.EnvBuilder) {
		b.SetBuildRoot("build/release")
		b.Append(domain.KeyCFLAGS, "-O2")
	})
	require.NoError(t, err)

	_, err = debug.Library("liba.a", "a.c")
	require.NoError(t, err)
	_, err = release.Library("liba.a", "a.c")
	require.NoError(t, err)

	assert.Equal(t, []string{"-O0"}, debug.Vars().Get(domain.KeyCFLAGS))
	assert.Equal(t, []string{"-O0", "-O2"}, release.Vars().Get(domain.KeyCFLAGS))
	assert.Contains(t, node(t, p, "build/release/a.o").Action.Argv, "-O2")
	assert.NotContains(t, node(t, p, "build/debug/a.o").Action.Argv, "-O2")

	got, ok := p.Env("release")
	require.True(t, ok)
	assert.Equal(t, "build/release", got.BuildRoot())
	assert.Equal(t, []string{"build/debug", "build/release"}, p.BuildRoots())
}

func TestProject_DuplicateEnvironment(t *testing.T) {
	p := newProject(t)
	_, err := p.NewEnv("E", "build", nil)
	require.NoError(t, err)

	_, err = p.NewEnv("E", "other", nil)
	require.ErrorIs(t, err, domain.ErrDuplicateEnvironment)
}

func TestProject_DuplicateTarget(t *testing.T) {
	p := newProject(t, "a.c", "b.c")
	env, err := p.NewEnv("E", "build", nil)
	require.NoError(t, err)

	_, err = env.Library("libx.a", "a.c")
	require.NoError(t, err)

	_, err = env.Program("libx.a", "b.c")
	require.ErrorIs(t, err, domain.ErrDuplicateTarget)
	assert.Equal(t, "build/libx.a", metadata(t, err)["target"])
	assert.Equal(t, 2, p.Graph().Len(), "a failed declaration adds nothing")
}

func TestProject_SharedObjectCompile(t *testing.T) {
	p := newProject(t, "util.c", "a.c", "b.c")
	env, err := p.NewEnv("E", "build", nil)
	require.NoError(t, err)

	_, err = env.Program("a", "a.c", "util.c")
	require.NoError(t, err)
	_, err = env.Program("b", "b.c", "util.c")
	require.NoError(t, err)

	assert.Equal(t, 5, p.Graph().Len())
	assert.Equal(t,
		[]domain.InternedString{domain.NewInternedString("build/a"), domain.NewInternedString("build/b")},
		p.Graph().DependentsOf(domain.NewInternedString("build/util.o")))
}

func TestProject_ConflictingObjectCompile(t *testing.T) {
	p := newProject(t, "util.c")
	plain, err := p.NewEnv("plain", "build", nil)
	require.NoError(t, err)
	tuned, err := plain.Derive("tuned", func(b *domain.EnvBuilder) {
		b.Append(domain.KeyCFLAGS, "-O3")
	})
	require.NoError(t, err)

	_, err = plain.Library("libutil.a", "util.c")
	require.NoError(t, err)

	_, err = tuned.Library("libutil-fast.a", "util.c")
	require.ErrorIs(t, err, domain.ErrDuplicateTarget)
	assert.Equal(t, "build/util.o", metadata(t, err)["target"])
}

func TestProject_FailedLinkLeavesNoObjects(t *testing.T) {
	p := newProject(t, "util.c", "fast.c")
	plain, err := p.NewEnv("plain", "build", nil)
	require.NoError(t, err)
	tuned, err := plain.Derive("tuned", func(b *domain.EnvBuilder) {
		b.Append(domain.KeyCFLAGS, "-O3")
	})
	require.NoError(t, err)

	_, err = plain.Library("libutil.a", "util.c")
	require.NoError(t, err)
	before := p.Graph().Len()

	_, err = tuned.Program("fast", "fast.c", "util.c")
	require.ErrorIs(t, err, domain.ErrDuplicateTarget)
	assert.Equal(t, before, p.Graph().Len())
	assert.False(t, p.Graph().Has("build/fast.o"))

	_, err = plain.Program("fast", "fast.c")
	require.NoError(t, err, "the object of the failed declaration can be declared again")
	assert.True(t, p.Graph().Has("build/fast.o"))
}

func TestProject_ToolchainErrors(t *testing.T) {
	boom := zerr.With(zerr.Wrap(domain.ErrUnknownVariable, "expand"), "variable", "CC")

	tests := []struct {
		name       string
		setup      func(tc *mocks.MockToolchain)
		wantSource string
	}{
		{
			name: "compile",
			setup: func(tc *mocks.MockToolchain) {
				tc.EXPECT().Compile(gomock.Any(), "a.c", "build/a.o", "build/a.d").Return([]string{"cc", "a.c"}, nil)
				tc.EXPECT().Compile(gomock.Any(), "b.c", "build/b.o", "build/b.d").Return(nil, boom)
			},
			wantSource: "b.c",
		},
		{
			name: "archive",
			setup: func(tc *mocks.MockToolchain) {
				tc.EXPECT().Compile(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return([]string{"cc"}, nil).Times(2)
				tc.EXPECT().Archive(gomock.Any(), []string{"build/a.o", "build/b.o"}, "build/libx.a").Return(nil, boom)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			tc := mocks.NewMockToolchain(ctrl)
			tt.setup(tc)

			root := t.TempDir()
			for _, f := range []string{"a.c", "b.c"} {
				require.NoError(t, os.WriteFile(filepath.Join(root, f), nil, 0o600))
			}
			p := project.New(root, fs.NewResolver(), tc)
			env, err := p.NewEnv("E", "build", nil)
			require.NoError(t, err)

			_, err = env.Library("libx.a", "a.c", "b.c")
			require.ErrorIs(t, err, domain.ErrUnknownVariable)
			md := metadata(t, err)
			assert.Equal(t, "build/libx.a", md["target"])
			assert.Equal(t, "CC", md["variable"])
			if tt.wantSource != "" {
				assert.Equal(t, tt.wantSource, md["source"])
			}
			assert.Equal(t, 0, p.Graph().Len())
		})
	}
}

func TestProject_ResolverErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockFileResolver(ctrl)
	root := t.TempDir()
	statErr := zerr.With(zerr.Wrap(domain.ErrPathStatFailed, "stat"), "path", "a.c")
	resolver.EXPECT().Expand(root, []string{"a.c"}).Return(nil, statErr)

	p := project.New(root, resolver, toolchain.New())
	env, err := p.NewEnv("E", "build", nil)
	require.NoError(t, err)

	_, err = env.Program("app", "a.c")
	require.ErrorIs(t, err, domain.ErrPathStatFailed)
	assert.Equal(t, "build/app", metadata(t, err)["target"])
	assert.Equal(t, 0, p.Graph().Len())
}

func TestProject_UnresolvedInput(t *testing.T) {
	p := newProject(t, "a.c")
	env, err := p.NewEnv("E", "build", nil)
	require.NoError(t, err)

	_, err = env.Program("app", "a.c", "missing.c")
	require.ErrorIs(t, err, domain.ErrUnresolvedInput)
	md := metadata(t, err)
	assert.Equal(t, "missing.c", md["input"])
	assert.Equal(t, "build/app", md["target"])
}

func TestProject_EmptyTarget(t *testing.T) {
	p := newProject(t, "a.c")
	env, err := p.NewEnv("E", "build", nil)
	require.NoError(t, err)

	_, err = env.Library("libnone.a", "source/**/*.c")
	require.ErrorIs(t, err, domain.ErrEmptyTarget)
	assert.Equal(t, "build/libnone.a", metadata(t, err)["target"])
}

func TestProject_GlobSources(t *testing.T) {
	p := newProject(t, "source/a.c", "source/net/b.c", "source/net/b.h", "main.c")
	env, err := p.NewEnv("E", "build", nil)
	require.NoError(t, err)

	lib, err := env.Library("libonward.a", "source/**/*.c")
	require.NoError(t, err)

	assert.Equal(t, []string{"build/source/a.o", "build/source/net/b.o"}, lib.InputStrings())
}

func TestProject_Command(t *testing.T) {
	p := newProject(t, "tests/test_a.c", "a.c")
	env, err := p.NewEnv("test", "build", nil)
	require.NoError(t, err)

	_, err = env.Program("onward-tests", "tests/*.c", "a.c")
	require.NoError(t, err)

	tests, err := env.Command(project.CommandSpec{
		Label:    "Unit Tests",
		Inputs:   []string{"onward-tests"},
		Argv:     []string{"./${SOURCES}", "--verbose"},
		Terminal: true,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.KindCommand, tests.Kind)
	assert.True(t, tests.Terminal)
	assert.Equal(t, []string{"./build/onward-tests", "--verbose"}, tests.Action.Argv)
	assert.Equal(t, domain.InternStrings([]string{"build/onward-tests"}), tests.Dependencies)
	assert.Empty(t, tests.Outputs)

	report, err := env.Command(project.CommandSpec{
		Label:   "coverage report",
		Inputs:  []string{"Unit Tests"},
		Outputs: []string{"./coverage/index.html"},
		Argv:    []string{"gcovr", "--html", "-o", "${TARGET}"},
	})
	require.NoError(t, err)
	assert.Empty(t, report.Inputs, "a label reference orders without adding an input file")
	assert.Equal(t, domain.InternStrings([]string{"Unit Tests"}), report.Dependencies)
	assert.Equal(t, []string{"gcovr", "--html", "-o", "coverage/index.html"}, report.Action.Argv)

	_, err = env.Command(project.CommandSpec{Label: "Unit Tests", Argv: []string{"true"}})
	require.ErrorIs(t, err, domain.ErrDuplicateTarget)

	_, err = env.Command(project.CommandSpec{Label: "nothing"})
	require.ErrorIs(t, err, domain.ErrEmptyTarget)
}

func TestProject_GeneratedSource(t *testing.T) {
	p := newProject(t, "main.c", "version.sh")
	env, err := p.NewEnv("E", "build", nil)
	require.NoError(t, err)

	gen, err := env.Command(project.CommandSpec{
		Label:   "version",
		Inputs:  []string{"version.sh"},
		Outputs: []string{"build/gen/version.c"},
		Argv:    []string{"sh", "${SOURCES}", "${TARGET}"},
	})
	require.NoError(t, err)

	_, err = env.Program("app", "main.c", "build/gen/version.c")
	require.NoError(t, err)

	obj := node(t, p, "build/gen/version.o")
	assert.Equal(t, []domain.InternedString{gen.ID}, obj.Dependencies)
	assert.Equal(t, []string{"build/gen/version.c"}, obj.InputStrings())
}

func TestProject_OutputCollisionWithCommand(t *testing.T) {
	p := newProject(t, "a.c")
	env, err := p.NewEnv("E", "build", nil)
	require.NoError(t, err)

	_, err = env.Program("app", "a.c")
	require.NoError(t, err)

	_, err = env.Command(project.CommandSpec{
		Label:   "overwrite",
		Outputs: []string{"build/app"},
		Argv:    []string{"touch", "${TARGET}"},
	})
	require.ErrorIs(t, err, domain.ErrDuplicateTarget)
	md := metadata(t, err)
	assert.Equal(t, "build/app", md["target"])
	assert.Equal(t, "build/app", md["declared_by"])
}

func TestProject_OutputCollisionWithLabel(t *testing.T) {
	p := newProject(t)
	env, err := p.NewEnv("E", "build", nil)
	require.NoError(t, err)

	_, err = env.Command(project.CommandSpec{Label: "Unit Tests", Argv: []string{"true"}, Terminal: true})
	require.NoError(t, err)

	_, err = env.Command(project.CommandSpec{
		Label:   "shadow",
		Outputs: []string{"Unit Tests"},
		Argv:    []string{"touch", "${TARGET}"},
	})
	require.ErrorIs(t, err, domain.ErrDuplicateTarget)
	md := metadata(t, err)
	assert.Equal(t, "Unit Tests", md["target"])
	assert.Equal(t, "Unit Tests", md["declared_by"])
	assert.Equal(t, 1, p.Graph().Len())
	assert.False(t, p.Graph().Has("shadow"))
}
