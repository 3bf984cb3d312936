package persistence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkflowError(t *testing.T) {
	err := NewWorkflowError("GetByID", "wf-1", ErrWorkflowNotFound)

	assert.Contains(t, err.Error(), "GetByID")
	assert.Contains(t, err.Error(), "wf-1")
	assert.True(t, IsWorkflowNotFound(err))
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestRunError(t *testing.T) {
	err := NewRunError("Save", "run-1", errors.New("disk full"))

	assert.Contains(t, err.Error(), "run-1")
	assert.False(t, IsRunNotFound(err))

	notFound := NewRunError("GetByID", "run-2", ErrRunNotFound)
	assert.True(t, IsRunNotFound(notFound))
}

func TestIsHelpers_NilAndUnrelated(t *testing.T) {
	assert.False(t, IsWorkflowNotFound(nil))
	assert.False(t, IsWorkflowNotFound(errors.New("other")))
	assert.False(t, IsRunNotFound(errors.New("other")))
}
