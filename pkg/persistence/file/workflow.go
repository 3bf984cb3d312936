package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/conduitci/conduit/pkg/models"
	"github.com/conduitci/conduit/pkg/persistence"
)

// WorkflowRepository handles workflow-related file operations.
type WorkflowRepository struct {
	root string
}

func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

func (fp *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	return fp.workflowRepo.GetAll(ctx)
}

func (fp *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	return fp.workflowRepo.GetByID(ctx, id)
}

func (fp *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return fp.workflowRepo.Save(ctx, workflow)
}

func (fp *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	return fp.workflowRepo.Delete(ctx, id)
}

func (wr *WorkflowRepository) dir() string {
	return path.Join(wr.root, "workflows")
}

// GetAll loads every workflow document under workflows/.
func (wr *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	root := os.DirFS(wr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflowID := file[:len(file)-len(".json")]

		workflow, err := wr.GetByID(ctx, workflowID)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

func (wr *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	data, err := os.ReadFile(path.Join(wr.dir(), id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	var workflow models.Workflow

	err = json.Unmarshal(data, &workflow)
	if err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return &workflow, nil
}

func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	err := os.MkdirAll(wr.dir(), 0750)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	err = os.WriteFile(path.Join(wr.dir(), workflow.ID+".json"), data, 0600)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	err := os.Remove(path.Join(wr.dir(), id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
		}

		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}
