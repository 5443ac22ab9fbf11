package project_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bake/internal/core/domain"
)

var onwardFiles = []string{
	"main.c",
	"source/a.c",
	"source/net/b.c",
	"source/net/b.h",
	"tests/test_a.c",
}

func onwardDescription() *domain.Description {
	noTests := domain.Condition{domain.ProfileOption: {"no-tests"}}
	return &domain.Description{
		Envs: []domain.EnvDecl{
			{
				Name:        "base",
				BuildRoot:   "build",
				Vars:        map[string][]string{"CFLAGS": {"-Wall"}},
				IncludeDirs: []string{"source/**/"},
				Variants: []domain.VariantDecl{{
					When: domain.Condition{domain.ProfileOption: {"coverage"}},
					Vars: map[string][]string{"CFLAGS": {"--coverage"}, "LDFLAGS": {"--coverage"}},
				}},
			},
			{
				Name:      "test",
				From:      "base",
				BuildRoot: "build/test",
				Vars:      map[string][]string{"CPPDEFINES": {"TESTING"}},
			},
		},
		Targets: []domain.TargetDecl{
			{Kind: domain.TargetLibrary, Name: "libonward.a", Sources: []string{"source/**/*.c"}},
			{Kind: domain.TargetProgram, Name: "onward", Sources: []string{"main.c", "libonward.a"}},
			{
				Kind:    domain.TargetProgram,
				Name:    "onward-tests",
				Env:     "test",
				Sources: []string{"tests/*.c", "source/**/*.c"},
				Unless:  noTests,
			},
			{
				Kind:    domain.TargetCommand,
				Name:    "Unit Tests",
				Env:     "test",
				Sources: []string{"onward-tests"},
				Cmd:     []string{"./${SOURCES}"},
				Test:    true,
				Unless:  noTests,
			},
		},
	}
}

func options(t *testing.T, profiles ...string) domain.Options {
	t.Helper()
	opts, err := domain.ParseOptions(profiles, nil)
	require.NoError(t, err)
	return opts
}

func TestEvaluate_Description(t *testing.T) {
	p := newProject(t, onwardFiles...)

	require.NoError(t, p.Evaluate(onwardDescription(), options(t)))

	obj := node(t, p, "build/source/a.o")
	assert.Equal(t, []string{
		"cc", "-c", "-o", "build/source/a.o", "-MMD", "-MF", "build/source/a.d",
		"-Isource", "-Isource/net", "-Wall", "source/a.c",
	}, obj.Action.Argv)

	testObj := node(t, p, "build/test/source/a.o")
	assert.Contains(t, testObj.Action.Argv, "-DTESTING")
	assert.Contains(t, testObj.Action.Argv, "-Isource/net", "derived environments inherit include paths")

	tests := node(t, p, "Unit Tests")
	assert.True(t, tests.Terminal)
	assert.Equal(t, []string{"./build/test/onward-tests"}, tests.Action.Argv)

	prog := node(t, p, "build/onward")
	assert.Equal(t, "base", prog.Env, "targets default to the first environment")
}

func TestEvaluate_CoverageVariant(t *testing.T) {
	p := newProject(t, onwardFiles...)

	require.NoError(t, p.Evaluate(onwardDescription(), options(t, "coverage")))

	assert.Equal(t, []string{"-Wall", "--coverage"}, node(t, p, "build/source/a.o").Vars.Get(domain.KeyCFLAGS))
	assert.Contains(t, node(t, p, "build/onward").Action.Argv, "--coverage")
	assert.Contains(t, node(t, p, "build/test/onward-tests").Action.Argv, "--coverage")
}

func TestEvaluate_ConditionalTargets(t *testing.T) {
	p := newProject(t, onwardFiles...)

	require.NoError(t, p.Evaluate(onwardDescription(), options(t, "no-tests")))

	assert.False(t, p.Graph().Has("Unit Tests"))
	assert.False(t, p.Graph().Has("build/test/onward-tests"))
	assert.True(t, p.Graph().Has("build/onward"))
	assert.Equal(t, 5, p.Graph().Len())
}

func TestEvaluate_ToolchainOverride(t *testing.T) {
	p := newProject(t, "main.c")
	desc := &domain.Description{
		Toolchain: domain.ToolchainDecl{
			Compile: []string{"${CC}", "-c", "${SOURCES}", "-o", "${TARGET}", "${CFLAGS}"},
		},
		Envs: []domain.EnvDecl{{
			Name:      "cross",
			BuildRoot: "out",
			Vars:      map[string][]string{"CC": {"arm-none-eabi-gcc"}, "CFLAGS": {"-mthumb"}},
			ToolVars:  map[string][]string{"OBJCOPY": {"arm-none-eabi-objcopy"}},
		}},
		Targets: []domain.TargetDecl{
			{Kind: domain.TargetProgram, Name: "firmware.elf", Sources: []string{"main.c"}},
			{
				Kind:    domain.TargetCommand,
				Name:    "firmware.bin",
				Sources: []string{"firmware.elf"},
				Outputs: []string{"out/firmware.bin"},
				Cmd:     []string{"${OBJCOPY}", "-O", "binary", "${SOURCES}", "${TARGET}"},
			},
		},
	}

	require.NoError(t, p.Evaluate(desc, options(t)))

	assert.Equal(t,
		[]string{"arm-none-eabi-gcc", "-c", "main.c", "-o", "out/main.o", "-mthumb"},
		node(t, p, "out/main.o").Action.Argv)
	assert.Equal(t,
		[]string{"arm-none-eabi-objcopy", "-O", "binary", "out/firmware.elf", "out/firmware.bin"},
		node(t, p, "firmware.bin").Action.Argv)
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name string
		desc *domain.Description
		want error
	}{
		{
			name: "unknown variable",
			desc: &domain.Description{Envs: []domain.EnvDecl{{
				Name: "E", BuildRoot: "build", Vars: map[string][]string{"CFLAG": {"-O2"}},
			}}},
			want: domain.ErrUnknownVariable,
		},
		{
			name: "unknown parent environment",
			desc: &domain.Description{Envs: []domain.EnvDecl{{Name: "E", From: "nope", BuildRoot: "build"}}},
			want: domain.ErrUnknownEnvironment,
		},
		{
			name: "missing build root",
			desc: &domain.Description{Envs: []domain.EnvDecl{{Name: "E"}}},
			want: domain.ErrEmptyBuildRoot,
		},
		{
			name: "unknown target environment",
			desc: &domain.Description{
				Envs:    []domain.EnvDecl{{Name: "E", BuildRoot: "build"}},
				Targets: []domain.TargetDecl{{Kind: domain.TargetProgram, Name: "app", Env: "F", Sources: []string{"main.c"}}},
			},
			want: domain.ErrUnknownEnvironment,
		},
		{
			name: "unknown target kind",
			desc: &domain.Description{
				Envs:    []domain.EnvDecl{{Name: "E", BuildRoot: "build"}},
				Targets: []domain.TargetDecl{{Kind: "shared-library", Name: "libx.so", Sources: []string{"main.c"}}},
			},
			want: domain.ErrUnknownTargetKind,
		},
		{
			name: "unresolved source",
			desc: &domain.Description{
				Envs:    []domain.EnvDecl{{Name: "E", BuildRoot: "build"}},
				Targets: []domain.TargetDecl{{Kind: domain.TargetProgram, Name: "app", Sources: []string{"nope.c"}}},
			},
			want: domain.ErrUnresolvedInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProject(t, "main.c")
			err := p.Evaluate(tt.desc, options(t))
			require.ErrorIs(t, err, tt.want)
		})
	}
}
