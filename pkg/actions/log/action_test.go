package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitci/conduit/pkg/models"
)

func TestNewAction(t *testing.T) {
	t.Run("defaults to info", func(t *testing.T) {
		action, err := NewAction(map[string]any{"message": "hello"})
		require.NoError(t, err)
		assert.Equal(t, "info", action.Level)
	})

	t.Run("requires a message", func(t *testing.T) {
		_, err := NewAction(map[string]any{"level": "debug"})
		require.ErrorIs(t, err, ErrMessageMissing)
	})
}

func TestAction_Execute_RendersMessage(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, nil))

	action, err := NewAction(map[string]any{
		"message": "run {{.run.id}} triggered by {{.event.type}}",
		"level":   "warn",
	})
	require.NoError(t, err)

	execCtx := models.ExecutionContext{
		RunID: "run-log1",
		Event: models.Event{Type: models.EventTypePush},
	}

	result, err := action.Execute(context.Background(), execCtx, logger)
	require.NoError(t, err)

	resultMap, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "run run-log1 triggered by push", resultMap["message"])
	assert.Contains(t, buf.String(), "run run-log1 triggered by push")
	assert.Contains(t, buf.String(), "WARN")
}
