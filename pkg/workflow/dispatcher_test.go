package workflow

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitci/conduit/pkg/events"
	"github.com/conduitci/conduit/pkg/models"
	"github.com/conduitci/conduit/pkg/persistence/file"
)

func TestDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()
	repository := NewRepository(file.NewPersistence(t.TempDir()))

	_, err := repository.Create(ctx, &models.Workflow{
		Name:  "docs on push",
		On:    &models.Trigger{Event: models.EventTypePush, Branches: []string{"main"}},
		Steps: []*models.Step{{Name: "build", Run: "make docs"}},
	})
	require.NoError(t, err)

	_, err = repository.Create(ctx, &models.Workflow{
		Name:  "nightly",
		On:    &models.Trigger{Event: models.EventTypeSchedule},
		Steps: []*models.Step{{Name: "build", Run: "make all"}},
	})
	require.NoError(t, err)

	publisher := &capturingPublisher{}
	dispatcher := NewDispatcher(repository, publisher, slog.Default())

	requested, err := dispatcher.Dispatch(ctx, models.Event{Type: models.EventTypePush, Branch: "main"})
	require.NoError(t, err)

	require.Len(t, requested, 1)
	require.Len(t, publisher.published, 1)

	request, ok := publisher.published[0].(*events.RunRequested)
	require.True(t, ok)
	assert.Equal(t, requested[0], request.WorkflowID)
	assert.Equal(t, models.EventTypePush, request.SourceEvent.Type)
}

func TestDispatcher_NoMatches(t *testing.T) {
	ctx := context.Background()
	repository := NewRepository(file.NewPersistence(t.TempDir()))
	publisher := &capturingPublisher{}
	dispatcher := NewDispatcher(repository, publisher, slog.Default())

	requested, err := dispatcher.Dispatch(ctx, models.Event{Type: models.EventTypePush, Branch: "main"})
	require.NoError(t, err)

	assert.Empty(t, requested)
	assert.Empty(t, publisher.published)
}
