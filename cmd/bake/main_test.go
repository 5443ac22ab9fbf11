package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectFile = `environments:
  - name: base
    build_root: build

targets:
  - kind: command
    name: greeting
    outputs: [build/greeting.txt]
    cmd: ["sh", "-c", "echo hello > ${TARGET}"]
`

func TestRun(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		expectedExit int
	}{
		{name: "version", args: []string{"version"}, expectedExit: 0},
		{name: "unknown command", args: []string{"frobnicate"}, expectedExit: 1},
		{name: "invalid log format", args: []string{"graph", "--log-format", "xml"}, expectedExit: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(writeProject(t, projectFile))

			var out bytes.Buffer
			assert.Equal(t, tt.expectedExit, run(tt.args, &out))
		})
	}
}

func TestRun_Build(t *testing.T) {
	dir := writeProject(t, projectFile)

	var out bytes.Buffer
	require.Equal(t, 0, run([]string{"build", "-f", dir}, &out))

	data, err := os.ReadFile(filepath.Join(dir, "build", "greeting.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestRun_BuildFailure(t *testing.T) {
	dir := writeProject(t, `environments:
  - name: base
    build_root: build

targets:
  - kind: command
    name: broken
    cmd: ["sh", "-c", "exit 3"]
`)

	var out bytes.Buffer
	assert.Equal(t, 1, run([]string{"build", "-f", dir}, &out))
}

func writeProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bake.yaml"), []byte(content), 0o600))
	return dir
}
