package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bake/internal/core/domain"
)

func TestNewReport(t *testing.T) {
	tests := []struct {
		name        string
		results     []domain.NodeResult
		wantVerdict domain.Verdict
		wantFailed  []string
		wantSkipped []string
	}{
		{
			name:        "empty build succeeds",
			wantVerdict: domain.VerdictSucceeded,
		},
		{
			name: "all succeeded",
			results: []domain.NodeResult{
				{ID: "a.o", State: domain.StateSucceeded},
				{ID: "lib.a", State: domain.StateSucceeded, Fresh: true},
			},
			wantVerdict: domain.VerdictSucceeded,
		},
		{
			name: "failure and skipped dependents",
			results: []domain.NodeResult{
				{ID: "a.o", State: domain.StateFailed},
				{ID: "b.o", State: domain.StateSucceeded},
				{ID: "lib.a", State: domain.StateSkipped},
				{ID: "prog", State: domain.StateSkipped},
			},
			wantVerdict: domain.VerdictFailed,
			wantFailed:  []string{"a.o"},
			wantSkipped: []string{"lib.a", "prog"},
		},
		{
			name: "non-terminal state fails the verdict",
			results: []domain.NodeResult{
				{ID: "a.o", State: domain.StatePending},
			},
			wantVerdict: domain.VerdictFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := domain.NewReport(tt.results)
			assert.Equal(t, tt.wantVerdict, r.Verdict)
			assert.Equal(t, tt.wantFailed, r.Failed)
			assert.Equal(t, tt.wantSkipped, r.Skipped)
			assert.Equal(t, tt.wantVerdict == domain.VerdictSucceeded, r.Succeeded())
		})
	}
}

func TestReport_ExecutedAndErr(t *testing.T) {
	actionErr := &domain.ActionError{Node: "a.o", ExitCode: 2}
	r := domain.NewReport([]domain.NodeResult{
		{ID: "a.o", State: domain.StateFailed, Err: actionErr},
		{ID: "b.o", State: domain.StateSucceeded},
		{ID: "c.o", State: domain.StateSucceeded, Fresh: true},
		{ID: "lib.a", State: domain.StateSkipped},
	})

	assert.Equal(t, 2, r.Executed())
	require.ErrorIs(t, r.Err(), domain.ErrActionExecution)

	res, ok := r.Result("b.o")
	require.True(t, ok)
	assert.Equal(t, domain.StateSucceeded, res.State)
	_, ok = r.Result("missing")
	assert.False(t, ok)
}

func TestActionError(t *testing.T) {
	exited := &domain.ActionError{Node: "build/a.o", ExitCode: 1}
	assert.Equal(t, "action execution failed: build/a.o exited with code 1", exited.Error())
	require.ErrorIs(t, exited, domain.ErrActionExecution)

	cause := errors.New("executable file not found in $PATH")
	launch := &domain.ActionError{Node: "test", ExitCode: -1, Err: cause}
	assert.Equal(t, "action execution failed: test: executable file not found in $PATH", launch.Error())
	require.ErrorIs(t, launch, cause)
	require.ErrorIs(t, launch, domain.ErrActionExecution)
}
