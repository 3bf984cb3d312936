package queue

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitci/conduit/pkg/models"
)

func TestNewSource(t *testing.T) {
	source := NewSource(map[string]any{"address": "localhost:6379"}, slog.Default())

	assert.Equal(t, defaultList, source.list)
	assert.NoError(t, source.Validate())
}

func TestSource_ValidateRequiresAddress(t *testing.T) {
	source := NewSource(map[string]any{}, slog.Default())
	require.ErrorIs(t, source.Validate(), ErrAddressMissing)

	_, err := NewSourceFactory().Create(map[string]any{}, slog.Default())
	require.ErrorIs(t, err, ErrAddressMissing)
}

func TestDecodeEvent(t *testing.T) {
	t.Run("full event", func(t *testing.T) {
		data := `{"id": "evt-1", "type": "push", "branch": "main", "repository": "org/repo"}`

		event, err := decodeEvent([]byte(data))
		require.NoError(t, err)

		assert.Equal(t, "evt-1", event.ID)
		assert.Equal(t, models.EventTypePush, event.Type)
		assert.Equal(t, "main", event.Branch)
		assert.False(t, event.ReceivedAt.IsZero())
	})

	t.Run("missing id gets one assigned", func(t *testing.T) {
		event, err := decodeEvent([]byte(`{"type": "push"}`))
		require.NoError(t, err)
		assert.NotEmpty(t, event.ID)
	})

	t.Run("missing type is rejected", func(t *testing.T) {
		_, err := decodeEvent([]byte(`{"branch": "main"}`))
		require.Error(t, err)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := decodeEvent([]byte("not json"))
		require.Error(t, err)
	})
}
