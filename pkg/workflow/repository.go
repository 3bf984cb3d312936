package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/conduitci/conduit/pkg/models"
	"github.com/conduitci/conduit/pkg/persistence"
)

// Repository wraps the persistence layer with workflow lifecycle rules:
// ID assignment, timestamps and existence checks.
type Repository struct {
	persistence persistence.Persistence
}

func NewRepository(persistence persistence.Persistence) *Repository {
	return &Repository{
		persistence: persistence,
	}
}

func (r *Repository) HealthCheck(ctx context.Context) (string, bool) {
	if r.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := r.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (r *Repository) FetchAll(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := r.persistence.Workflows(ctx)
	if err != nil {
		return make([]*models.Workflow, 0), err
	}

	return workflows, nil
}

func (r *Repository) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := r.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, persistence.NewWorkflowError("fetch", id, persistence.ErrWorkflowNotFound)
	}

	return workflow, nil
}

func (r *Repository) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if err := workflow.Validate(); err != nil {
		return nil, err
	}

	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if err := r.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

func (r *Repository) Update(ctx context.Context, id string, workflow *models.Workflow) (*models.Workflow, error) {
	if err := workflow.Validate(); err != nil {
		return nil, err
	}

	existing, err := r.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	workflow.ID = id
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	if err := r.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.FetchByID(ctx, id); err != nil {
		return err
	}

	return r.persistence.DeleteWorkflow(ctx, id)
}

func (r *Repository) FetchRuns(ctx context.Context, workflowID string) ([]*models.WorkflowRun, error) {
	return r.persistence.Runs(ctx, workflowID)
}

func (r *Repository) FetchRunByID(ctx context.Context, id string) (*models.WorkflowRun, error) {
	run, err := r.persistence.RunByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if run == nil {
		return nil, persistence.NewRunError("fetch", id, persistence.ErrRunNotFound)
	}

	return run, nil
}
