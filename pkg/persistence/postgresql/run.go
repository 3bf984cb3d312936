package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/conduitci/conduit/pkg/models"
	"github.com/conduitci/conduit/pkg/persistence"
)

// RunRepository handles run-related database operations.
type RunRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRunRepository(db *sql.DB, logger *slog.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logger}
}

const runColumns = `
	id
  , workflow_id
  , status
  , event
  , environment
  , step_results
  , error
  , created_at
  , started_at
  , finished_at
`

// GetByWorkflow returns the runs of a workflow, newest first. An empty
// workflowID returns all runs.
func (r *RunRepository) GetByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM workflow_runs
		WHERE ($1 = '' OR workflow_id = $1)
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	runs := make([]*models.WorkflowRun, 0)

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		runs = append(runs, run)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.WorkflowRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM workflow_runs
		WHERE id = $1
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRunError("GetByID", id, persistence.ErrRunNotFound)
		}

		return nil, persistence.NewRunError("GetByID", id, err)
	}

	return run, nil
}

// Save upserts the run document; runs are written on every state transition.
func (r *RunRepository) Save(ctx context.Context, run *models.WorkflowRun) error {
	event, err := json.Marshal(run.Event)
	if err != nil {
		return persistence.NewRunError("Save", run.ID, fmt.Errorf("failed to encode event: %w", err))
	}

	var environment []byte
	if run.Environment != nil {
		environment, err = json.Marshal(run.Environment)
		if err != nil {
			return persistence.NewRunError("Save", run.ID, fmt.Errorf("failed to encode environment: %w", err))
		}
	}

	var stepResults []byte
	if run.StepResults != nil {
		stepResults, err = json.Marshal(run.StepResults)
		if err != nil {
			return persistence.NewRunError("Save", run.ID, fmt.Errorf("failed to encode step results: %w", err))
		}
	}

	query := `
		INSERT INTO workflow_runs (id, workflow_id, status, event, environment, step_results, error, created_at, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			environment = EXCLUDED.environment,
			step_results = EXCLUDED.step_results,
			error = EXCLUDED.error,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at
	`

	_, err = r.db.ExecContext(ctx, query,
		run.ID,
		run.WorkflowID,
		run.Status,
		event,
		environment,
		stepResults,
		run.Error,
		run.CreatedAt,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return persistence.NewRunError("Save", run.ID, err)
	}

	return nil
}

func scanRun(row rowScanner) (*models.WorkflowRun, error) {
	var (
		run         models.WorkflowRun
		event       []byte
		environment []byte
		stepResults []byte
	)

	err := row.Scan(
		&run.ID,
		&run.WorkflowID,
		&run.Status,
		&event,
		&environment,
		&stepResults,
		&run.Error,
		&run.CreatedAt,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(event, &run.Event)
	if err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}

	if environment != nil {
		err = json.Unmarshal(environment, &run.Environment)
		if err != nil {
			return nil, fmt.Errorf("failed to decode environment: %w", err)
		}
	}

	if stepResults != nil {
		err = json.Unmarshal(stepResults, &run.StepResults)
		if err != nil {
			return nil, fmt.Errorf("failed to decode step results: %w", err)
		}
	}

	return &run, nil
}
