// Package persistence provides the data storage abstraction for workflows and runs.
package persistence

import (
	"context"

	"github.com/conduitci/conduit/pkg/models"
)

type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error

	Runs(ctx context.Context, workflowID string) ([]*models.WorkflowRun, error)
	RunByID(ctx context.Context, id string) (*models.WorkflowRun, error)
	SaveRun(ctx context.Context, run *models.WorkflowRun) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
