package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkflowRun(t *testing.T) {
	event := Event{Type: "push", Branch: "main", Repository: "org/repo"}
	run := NewWorkflowRun("wf-1", event)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "wf-1", run.WorkflowID)
	assert.Equal(t, RunStatusPending, run.Status)
	assert.Equal(t, event, run.Event)
	assert.False(t, run.CreatedAt.IsZero())
	assert.Nil(t, run.StartedAt)
	assert.Nil(t, run.FinishedAt)
}

func TestRunStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from RunStatus
		to   RunStatus
		want bool
	}{
		{RunStatusPending, RunStatusRunning, true},
		{RunStatusPending, RunStatusSkipped, true},
		{RunStatusPending, RunStatusSucceeded, false},
		{RunStatusPending, RunStatusFailed, false},
		{RunStatusRunning, RunStatusSucceeded, true},
		{RunStatusRunning, RunStatusFailed, true},
		{RunStatusRunning, RunStatusSkipped, false},
		{RunStatusSkipped, RunStatusRunning, false},
		{RunStatusSucceeded, RunStatusFailed, false},
		{RunStatusFailed, RunStatusRunning, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestRunStatus_Terminal(t *testing.T) {
	assert.False(t, RunStatusPending.Terminal())
	assert.False(t, RunStatusRunning.Terminal())
	assert.True(t, RunStatusSkipped.Terminal())
	assert.True(t, RunStatusSucceeded.Terminal())
	assert.True(t, RunStatusFailed.Terminal())
}

func TestWorkflowRun_Transition(t *testing.T) {
	run := NewWorkflowRun("wf-1", Event{Type: "push"})

	require.NoError(t, run.Transition(RunStatusRunning))
	assert.Equal(t, RunStatusRunning, run.Status)
	require.NotNil(t, run.StartedAt)
	assert.Nil(t, run.FinishedAt)

	require.NoError(t, run.Transition(RunStatusSucceeded))
	assert.Equal(t, RunStatusSucceeded, run.Status)
	require.NotNil(t, run.FinishedAt)

	// Terminal: any further transition is rejected.
	err := run.Transition(RunStatusFailed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal run transition")
	assert.Equal(t, RunStatusSucceeded, run.Status)
}

func TestWorkflowRun_Transition_Skip(t *testing.T) {
	run := NewWorkflowRun("wf-1", Event{Type: "push"})

	require.NoError(t, run.Transition(RunStatusSkipped))
	assert.Equal(t, RunStatusSkipped, run.Status)
	assert.Nil(t, run.StartedAt)
	require.NotNil(t, run.FinishedAt)

	err := run.Transition(RunStatusRunning)
	require.Error(t, err)
}

func TestWorkflowRun_Duration(t *testing.T) {
	run := NewWorkflowRun("wf-1", Event{Type: "push"})
	assert.Zero(t, run.Duration())

	require.NoError(t, run.Transition(RunStatusRunning))
	require.NoError(t, run.Transition(RunStatusFailed))
	assert.GreaterOrEqual(t, run.Duration().Nanoseconds(), int64(0))
}
