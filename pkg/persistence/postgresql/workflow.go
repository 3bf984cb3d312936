package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/conduitci/conduit/pkg/models"
	"github.com/conduitci/conduit/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

const workflowColumns = `
	id
  , name
  , description
  , trigger
  , guard
  , env
  , steps
  , metadata
  , created_at
  , updated_at
  , deleted_at
`

// GetAll returns all workflows that are not soft deleted.
func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE id = $1 AND deleted_at IS NULL
	`

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return workflow, nil
}

// Save upserts the workflow document.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	trigger, guard, env, steps, metadata, err := marshalWorkflowDocuments(workflow)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = time.Now().UTC()
	}

	workflow.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO workflows (id, name, description, trigger, guard, env, steps, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			trigger = EXCLUDED.trigger,
			guard = EXCLUDED.guard,
			env = EXCLUDED.env,
			steps = EXCLUDED.steps,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.Name,
		workflow.Description,
		trigger,
		guard,
		env,
		steps,
		metadata,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

// Delete soft deletes by stamping deleted_at.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE workflows SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		workflow models.Workflow
		trigger  []byte
		guard    []byte
		env      []byte
		steps    []byte
		metadata []byte
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.Description,
		&trigger,
		&guard,
		&env,
		&steps,
		&metadata,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
		&workflow.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(trigger, &workflow.On)
	if err != nil {
		return nil, fmt.Errorf("failed to decode trigger: %w", err)
	}

	if guard != nil {
		err = json.Unmarshal(guard, &workflow.Guard)
		if err != nil {
			return nil, fmt.Errorf("failed to decode guard: %w", err)
		}
	}

	if env != nil {
		err = json.Unmarshal(env, &workflow.Env)
		if err != nil {
			return nil, fmt.Errorf("failed to decode env: %w", err)
		}
	}

	err = json.Unmarshal(steps, &workflow.Steps)
	if err != nil {
		return nil, fmt.Errorf("failed to decode steps: %w", err)
	}

	if metadata != nil {
		err = json.Unmarshal(metadata, &workflow.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}

	return &workflow, nil
}

func marshalWorkflowDocuments(workflow *models.Workflow) (trigger, guard, env, steps, metadata []byte, err error) {
	trigger, err = json.Marshal(workflow.On)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to encode trigger: %w", err)
	}

	if workflow.Guard != nil {
		guard, err = json.Marshal(workflow.Guard)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("failed to encode guard: %w", err)
		}
	}

	if workflow.Env != nil {
		env, err = json.Marshal(workflow.Env)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("failed to encode env: %w", err)
		}
	}

	steps, err = json.Marshal(workflow.Steps)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to encode steps: %w", err)
	}

	if workflow.Metadata != nil {
		metadata, err = json.Marshal(workflow.Metadata)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("failed to encode metadata: %w", err)
		}
	}

	return trigger, guard, env, steps, metadata, nil
}
