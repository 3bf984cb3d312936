package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/conduitci/conduit/pkg/models"
	"github.com/conduitci/conduit/pkg/persistence"
)

// RunRepository handles run-related file operations.
type RunRepository struct {
	root string
}

func NewRunRepository(root string) *RunRepository {
	return &RunRepository{root: root}
}

func (fp *Persistence) Runs(ctx context.Context, workflowID string) ([]*models.WorkflowRun, error) {
	return fp.runRepo.GetByWorkflow(ctx, workflowID)
}

func (fp *Persistence) RunByID(ctx context.Context, id string) (*models.WorkflowRun, error) {
	return fp.runRepo.GetByID(ctx, id)
}

func (fp *Persistence) SaveRun(ctx context.Context, run *models.WorkflowRun) error {
	return fp.runRepo.Save(ctx, run)
}

func (rr *RunRepository) dir() string {
	return path.Join(rr.root, "runs")
}

// GetByWorkflow returns the runs of one workflow, newest first. An empty
// workflowID returns all runs.
func (rr *RunRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowRun, error) {
	root := os.DirFS(rr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list run files: %w", err)
	}

	runs := make([]*models.WorkflowRun, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		runID := file[:len(file)-len(".json")]

		run, err := rr.GetByID(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
		}

		if workflowID != "" && run.WorkflowID != workflowID {
			continue
		}

		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	return runs, nil
}

func (rr *RunRepository) GetByID(_ context.Context, id string) (*models.WorkflowRun, error) {
	data, err := os.ReadFile(path.Join(rr.dir(), id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewRunError("GetByID", id, persistence.ErrRunNotFound)
		}

		return nil, persistence.NewRunError("GetByID", id, err)
	}

	var run models.WorkflowRun

	err = json.Unmarshal(data, &run)
	if err != nil {
		return nil, persistence.NewRunError("GetByID", id, err)
	}

	return &run, nil
}

func (rr *RunRepository) Save(_ context.Context, run *models.WorkflowRun) error {
	err := os.MkdirAll(rr.dir(), 0750)
	if err != nil {
		return persistence.NewRunError("Save", run.ID, err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return persistence.NewRunError("Save", run.ID, err)
	}

	err = os.WriteFile(path.Join(rr.dir(), run.ID+".json"), data, 0600)
	if err != nil {
		return persistence.NewRunError("Save", run.ID, err)
	}

	return nil
}
