package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bake/internal/adapters/fs"
	"go.trai.ch/bake/internal/adapters/toolchain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/engine/project"
)

func TestRelevantChanges(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{"main.c", "util.h"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, f), []byte("\n"), 0o600))
	}
	p := project.New(root, fs.NewResolver(), toolchain.New())
	env, err := p.NewEnv("E", "out", nil)
	require.NoError(t, err)
	_, err = env.Program("app", "main.c")
	require.NoError(t, err)
	_, err = env.Command(project.CommandSpec{Label: "stamp", Outputs: []string{"stamp.txt"}, Argv: []string{"touch", "stamp.txt"}})
	require.NoError(t, err)

	batch := []ports.WatchEvent{
		{Path: "bake.yaml", Operation: ports.OpWrite},
		{Path: "main.c", Operation: ports.OpWrite},
		{Path: "out/app", Operation: ports.OpCreate},
		{Path: "out/main.d", Operation: ports.OpWrite},
		{Path: "outside.c", Operation: ports.OpCreate},
		{Path: "stamp.txt", Operation: ports.OpWrite},
		{Path: "util.h", Operation: ports.OpRemove},
	}

	assert.Equal(t, []string{"bake.yaml", "main.c", "outside.c", "util.h"}, relevantChanges(p, batch))
}

func TestUnderAny(t *testing.T) {
	tests := []struct {
		file  string
		roots []string
		want  bool
	}{
		{file: "build/a.o", roots: []string{"build"}, want: true},
		{file: "build", roots: []string{"build/"}, want: true},
		{file: "builder.c", roots: []string{"build"}, want: false},
		{file: "main.c", roots: []string{"."}, want: false},
		{file: "x/y.o", roots: []string{"build", "x"}, want: true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, underAny(tt.file, tt.roots), tt.file)
	}
}
