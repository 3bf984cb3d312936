package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitci/conduit/pkg/models"
	"github.com/conduitci/conduit/pkg/persistence"
	"github.com/conduitci/conduit/pkg/persistence/file"
)

func testWorkflow(name string) *models.Workflow {
	return &models.Workflow{
		Name:  name,
		On:    &models.Trigger{Event: models.EventTypePush},
		Steps: []*models.Step{{Name: "build", Run: "make"}},
	}
}

func TestRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repository := NewRepository(file.NewPersistence(t.TempDir()))

	created, err := repository.Create(ctx, testWorkflow("created workflow"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := repository.FetchByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "created workflow", fetched.Name)

	fetched.Description = "updated"
	updated, err := repository.Update(ctx, created.ID, fetched)
	require.NoError(t, err)
	assert.Equal(t, "updated", updated.Description)
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())

	all, err := repository.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repository.Delete(ctx, created.ID))

	_, err = repository.FetchByID(ctx, created.ID)
	require.True(t, persistence.IsWorkflowNotFound(err))
}

func TestRepository_CreateRejectsInvalidWorkflow(t *testing.T) {
	repository := NewRepository(file.NewPersistence(t.TempDir()))

	invalid := testWorkflow("invalid workflow")
	invalid.Steps[0].Uses = "checkout"

	_, err := repository.Create(context.Background(), invalid)
	require.ErrorIs(t, err, models.ErrStepActionConflict)
}

func TestRepository_FetchRuns(t *testing.T) {
	ctx := context.Background()
	store := file.NewPersistence(t.TempDir())
	repository := NewRepository(store)

	run := models.NewWorkflowRun("wf-1", models.Event{Type: models.EventTypePush})
	require.NoError(t, store.SaveRun(ctx, run))

	runs, err := repository.FetchRuns(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, runs, 1)

	fetched, err := repository.FetchRunByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPending, fetched.Status)

	_, err = repository.FetchRunByID(ctx, "run-missing")
	require.True(t, persistence.IsRunNotFound(err))
}
