package fs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bake/internal/adapters/fs"
)

func TestVerifier_VerifyOutputs(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "build/a.o", "build/liba.a")
	verifier := fs.NewVerifier()

	exists, err := verifier.VerifyOutputs(tmpDir, []string{"build/a.o", "build/liba.a"})
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = verifier.VerifyOutputs(tmpDir, []string{"build/a.o", "build/missing"})
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = verifier.VerifyOutputs(tmpDir, nil)
	require.NoError(t, err)
	assert.True(t, exists)
}
