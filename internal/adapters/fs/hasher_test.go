package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bake/internal/adapters/fs"
	"go.trai.ch/bake/internal/core/domain"
)

func compileNode() *domain.Node {
	return &domain.Node{
		ID:      domain.NewInternedString("build/a.o"),
		Kind:    domain.KindObject,
		Inputs:  domain.InternStrings([]string{"a.c"}),
		Outputs: domain.InternStrings([]string{"build/a.o"}),
		Action: domain.Action{
			Argv:    []string{"cc", "-c", "-o", "build/a.o", "-MMD", "-MF", "build/a.d", "-O0", "a.c"},
			Depfile: "build/a.d",
		},
	}
}

func fingerprint(t *testing.T, h *fs.Hasher, n *domain.Node, root string) string {
	t.Helper()
	fp, err := h.ComputeFingerprint(n, root)
	require.NoError(t, err)
	return fp
}

func TestHasher_ComputeFingerprint_Deterministic(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "a.c")
	h := fs.NewHasher(fs.NewWalker())

	first := fingerprint(t, h, compileNode(), tmpDir)
	second := fingerprint(t, h, compileNode(), tmpDir)
	assert.Equal(t, first, second)
	assert.Len(t, first, 16)
}

func TestHasher_ComputeFingerprint_Changes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, root string, n *domain.Node)
	}{
		{
			name: "input content",
			mutate: func(t *testing.T, root string, _ *domain.Node) {
				require.NoError(t, os.WriteFile(filepath.Join(root, "a.c"), []byte("int x;"), 0o600))
			},
		},
		{
			name: "command line",
			mutate: func(_ *testing.T, _ string, n *domain.Node) {
				n.Action.Argv[7] = "-O2"
			},
		},
		{
			name: "outputs",
			mutate: func(_ *testing.T, _ string, n *domain.Node) {
				n.Outputs = domain.InternStrings([]string{"build/b.o"})
			},
		},
		{
			name: "process environment",
			mutate: func(_ *testing.T, _ string, n *domain.Node) {
				n.Action.Env = map[string]string{"LANG": "C"}
			},
		},
		{
			name: "depfile header",
			mutate: func(t *testing.T, root string, _ *domain.Node) {
				require.NoError(t, os.WriteFile(filepath.Join(root, "a.h"), []byte("#define X 2"), 0o600))
			},
		},
		{
			name: "depfile header removed",
			mutate: func(t *testing.T, root string, _ *domain.Node) {
				require.NoError(t, os.Remove(filepath.Join(root, "a.h")))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			writeFiles(t, tmpDir, "a.c", "a.h")
			require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "build"), domain.DirPerm))
			require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "build", "a.d"),
				[]byte("build/a.o: a.c \\\n a.h\n"), 0o600))

			h := fs.NewHasher(fs.NewWalker())
			n := compileNode()
			before := fingerprint(t, h, n, tmpDir)

			tt.mutate(t, tmpDir, n)

			assert.NotEqual(t, before, fingerprint(t, h, n, tmpDir))
		})
	}
}

func TestHasher_ComputeFingerprint_MissingInput(t *testing.T) {
	tmpDir := t.TempDir()
	h := fs.NewHasher(fs.NewWalker())

	_, err := h.ComputeFingerprint(compileNode(), tmpDir)
	require.ErrorIs(t, err, domain.ErrFileHashFailed)
}

func TestHasher_ComputeFingerprint_DirectoryInput(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "assets/a.txt", "assets/sub/b.txt")
	h := fs.NewHasher(fs.NewWalker())

	n := &domain.Node{
		ID:     domain.NewInternedString("bundle"),
		Kind:   domain.KindCommand,
		Inputs: domain.InternStrings([]string{"assets"}),
		Action: domain.Action{Argv: []string{"tar", "cf", "bundle.tar", "assets"}},
	}
	before := fingerprint(t, h, n, tmpDir)

	writeFiles(t, tmpDir, "assets/sub/c.txt")
	assert.NotEqual(t, before, fingerprint(t, h, n, tmpDir))
}

func TestParseDepfile(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{name: "single line", data: "a.o: a.c a.h\n", want: []string{"a.c", "a.h"}},
		{
			name: "continuations",
			data: "build/a.o: source/a.c \\\n  source/a.h \\\n  /usr/include/stdio.h\n",
			want: []string{"source/a.c", "source/a.h", "/usr/include/stdio.h"},
		},
		{
			name: "phony targets",
			data: "a.o: a.c a.h\n\na.h:\n",
			want: []string{"a.c", "a.h"},
		},
		{name: "escaped space", data: "a.o: my\\ file.c\n", want: []string{"my file.c"}},
		{name: "windows drive", data: "a.o: C:/src/a.c\n", want: []string{"C:/src/a.c"}},
		{name: "empty", data: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fs.ParseDepfile([]byte(tt.data)))
		})
	}
}
