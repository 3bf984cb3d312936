package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/conduitci/conduit/pkg/eventbus"
	"github.com/conduitci/conduit/pkg/events"
	"github.com/conduitci/conduit/pkg/models"
	"github.com/conduitci/conduit/pkg/otelhelper"
	"github.com/conduitci/conduit/pkg/persistence"
	"github.com/conduitci/conduit/pkg/registry"
	"github.com/conduitci/conduit/pkg/template"
)

// Runner executes one workflow for one event. It evaluates the trigger and
// the guard, materializes the environment and then executes the steps
// strictly in declaration order, stopping at the first failure. The runner
// never retries; retry behavior belongs to individual actions.
type Runner struct {
	registry    *registry.Registry
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	workerID    string
	logger      *slog.Logger
}

type RunnerOption func(*Runner)

// WithPersistence makes the runner save the run record on every state change.
func WithPersistence(p persistence.Persistence) RunnerOption {
	return func(r *Runner) { r.persistence = p }
}

// WithPublisher makes the runner publish run and step lifecycle events.
func WithPublisher(p eventbus.EventPublisher) RunnerOption {
	return func(r *Runner) { r.publisher = p }
}

func WithTracer(t trace.Tracer) RunnerOption {
	return func(r *Runner) { r.tracer = t }
}

func WithWorkerID(id string) RunnerOption {
	return func(r *Runner) { r.workerID = id }
}

func NewRunner(registry *registry.Registry, logger *slog.Logger, opts ...RunnerOption) *Runner {
	runner := &Runner{
		registry: registry,
		logger:   logger.With("module", "workflow_runner"),
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

// EvaluateTrigger reports whether the event starts a run at all. A false
// result means no run record is created and neither guard nor steps are
// ever evaluated.
func (r *Runner) EvaluateTrigger(workflow *models.Workflow, event models.Event) bool {
	return workflow.On.Matches(event)
}

// EvaluateGuard reports whether a triggered run may execute its steps.
func (r *Runner) EvaluateGuard(workflow *models.Workflow, event models.Event) bool {
	return workflow.Guard.Evaluate(event)
}

// Execute runs the workflow for the event. It returns the run record, nil
// when the trigger did not match. The returned error is non-nil exactly when
// the run Failed; a Skipped run is a successful, non-error outcome.
func (r *Runner) Execute(ctx context.Context, workflow *models.Workflow, event models.Event) (*models.WorkflowRun, error) {
	logger := r.logger.With("workflow_id", workflow.ID, "event_type", event.Type)

	if !r.EvaluateTrigger(workflow, event) {
		logger.Debug("Trigger did not match, no run created")

		return nil, nil
	}

	run := models.NewWorkflowRun(workflow.ID, event)
	logger = logger.With("run_id", run.ID)
	r.saveRun(ctx, logger, run)

	if r.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, r.tracer, "workflow.run",
			attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
			attribute.String(otelhelper.WorkflowNameKey, workflow.Name),
			attribute.String(otelhelper.RunIDKey, run.ID),
			attribute.String(otelhelper.EventTypeKey, event.Type),
			attribute.String(otelhelper.RepositoryKey, event.Repository),
		)
		defer span.End()
	}

	if !r.EvaluateGuard(workflow, event) {
		return r.skip(ctx, logger, workflow, run)
	}

	if err := run.Transition(models.RunStatusRunning); err != nil {
		return run, err
	}

	logger.Info("Run started", "steps", len(workflow.Steps))
	r.publish(ctx, logger, &events.RunStarted{BaseEvent: r.baseEvent(events.RunStartedEvent, workflow.ID, run.ID)})
	r.saveRun(ctx, logger, run)

	workDir, err := os.MkdirTemp("", "conduit-run-")
	if err != nil {
		return r.fail(ctx, logger, workflow, run, "", fmt.Errorf("failed to create work directory: %w", err))
	}

	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn("Failed to remove work directory", "work_dir", workDir, "error", err)
		}
	}()

	executionCtx := models.ExecutionContext{
		RunID:       run.ID,
		WorkflowID:  workflow.ID,
		Event:       event,
		StepResults: make(map[string]any),
		Metadata:    make(map[string]any),
		WorkDir:     workDir,
	}

	// Environment is materialized exactly once. A render failure is a
	// failure at the earliest step: the run fails with zero steps invoked.
	env, err := r.materializeEnvironment(workflow.Env, &executionCtx)
	if err != nil {
		return r.fail(ctx, logger, workflow, run, "", err)
	}

	executionCtx.Env = env
	run.Environment = env

	for position, step := range workflow.Steps {
		result, err := r.executeStep(ctx, logger, workflow, run, &executionCtx, step, position)
		run.StepResults = append(run.StepResults, result)
		r.saveRun(ctx, logger, run)

		if err != nil {
			return r.fail(ctx, logger, workflow, run, step.Name, fmt.Errorf("step %q: %w", step.Name, err))
		}

		executionCtx.StepResults[stepKey(step)] = result.Output
	}

	if err := run.Transition(models.RunStatusSucceeded); err != nil {
		return run, err
	}

	logger.Info("Run succeeded", "duration", run.Duration())
	r.publish(ctx, logger, &events.RunSucceeded{
		BaseEvent: r.baseEvent(events.RunSucceededEvent, workflow.ID, run.ID),
		Duration:  run.Duration(),
	})
	r.saveRun(ctx, logger, run)

	return run, nil
}

func (r *Runner) executeStep(
	ctx context.Context,
	logger *slog.Logger,
	workflow *models.Workflow,
	run *models.WorkflowRun,
	executionCtx *models.ExecutionContext,
	step *models.Step,
	position int,
) (*models.StepResult, error) {
	stepLogger := logger.With("step", step.Name, "action", step.ActionID(), "position", position)
	stepLogger.Info("Step started")

	r.publish(ctx, stepLogger, &events.StepStarted{
		BaseEvent: r.baseEvent(events.StepStartedEvent, workflow.ID, run.ID),
		StepName:  step.Name,
		StepUID:   step.UID,
		Position:  position,
	})

	if r.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, r.tracer, "workflow.step",
			attribute.String(otelhelper.StepNameKey, step.Name),
			attribute.String(otelhelper.StepUIDKey, step.UID),
			attribute.String(otelhelper.ActionIDKey, step.ActionID()),
		)
		defer span.End()
	}

	result := &models.StepResult{
		StepUID:   step.UID,
		Name:      step.Name,
		StartedAt: time.Now().UTC(),
	}

	output, err := r.runAction(ctx, stepLogger, executionCtx, step)

	finished := time.Now().UTC()
	result.FinishedAt = &finished
	result.Output = output

	if err != nil {
		result.Error = err.Error()

		stepLogger.Error("Step failed", "error", err)
	} else {
		stepLogger.Info("Step finished", "duration", finished.Sub(result.StartedAt))
	}

	r.publish(ctx, stepLogger, &events.StepFinished{
		BaseEvent: r.baseEvent(events.StepFinishedEvent, workflow.ID, run.ID),
		StepName:  step.Name,
		StepUID:   step.UID,
		Position:  position,
		Duration:  finished.Sub(result.StartedAt),
	})

	return result, err
}

func (r *Runner) runAction(
	ctx context.Context,
	logger *slog.Logger,
	executionCtx *models.ExecutionContext,
	step *models.Step,
) (any, error) {
	action, err := r.registry.CreateAction(step.ActionID(), step.Config())
	if err != nil {
		return nil, fmt.Errorf("failed to create action %q: %w", step.ActionID(), err)
	}

	stepCtx := *executionCtx
	if len(step.Env) > 0 {
		merged := make(map[string]string, len(executionCtx.Env)+len(step.Env))
		for k, v := range executionCtx.Env {
			merged[k] = v
		}

		for k, v := range step.Env {
			merged[k] = v
		}

		stepCtx.Env = merged
	}

	return action.Execute(ctx, stepCtx, logger)
}

func (r *Runner) materializeEnvironment(
	env map[string]string,
	executionCtx *models.ExecutionContext,
) (map[string]string, error) {
	materialized := make(map[string]string, len(env))

	for name, value := range env {
		rendered, err := template.RenderString(value, executionCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to materialize environment %q: %w", name, err)
		}

		materialized[name] = rendered
	}

	return materialized, nil
}

func (r *Runner) skip(
	ctx context.Context,
	logger *slog.Logger,
	workflow *models.Workflow,
	run *models.WorkflowRun,
) (*models.WorkflowRun, error) {
	if err := run.Transition(models.RunStatusSkipped); err != nil {
		return run, err
	}

	logger.Info("Guard rejected event, run skipped")
	r.publish(ctx, logger, &events.RunSkipped{
		BaseEvent: r.baseEvent(events.RunSkippedEvent, workflow.ID, run.ID),
		Reason:    "guard rejected event",
	})
	r.saveRun(ctx, logger, run)

	return run, nil
}

func (r *Runner) fail(
	ctx context.Context,
	logger *slog.Logger,
	workflow *models.Workflow,
	run *models.WorkflowRun,
	failedStep string,
	cause error,
) (*models.WorkflowRun, error) {
	run.Error = cause.Error()

	if err := run.Transition(models.RunStatusFailed); err != nil {
		return run, err
	}

	logger.Error("Run failed", "failed_step", failedStep, "error", cause)
	r.publish(ctx, logger, &events.RunFailed{
		BaseEvent:  r.baseEvent(events.RunFailedEvent, workflow.ID, run.ID),
		FailedStep: failedStep,
		Error:      cause.Error(),
		Duration:   run.Duration(),
	})
	r.saveRun(ctx, logger, run)

	return run, cause
}

func (r *Runner) baseEvent(eventType events.EventType, workflowID, runID string) events.BaseEvent {
	base := events.NewBaseEvent(eventType, workflowID)
	base.RunID = runID
	base.WorkerID = r.workerID

	return base
}

func (r *Runner) publish(ctx context.Context, logger *slog.Logger, event eventbus.Event) {
	if r.publisher == nil {
		return
	}

	if err := r.publisher.Publish(ctx, string(event.GetType()), event); err != nil {
		logger.Warn("Failed to publish lifecycle event", "event_type", event.GetType(), "error", err)
	}
}

func (r *Runner) saveRun(ctx context.Context, logger *slog.Logger, run *models.WorkflowRun) {
	if r.persistence == nil {
		return
	}

	if err := r.persistence.SaveRun(ctx, run); err != nil {
		logger.Warn("Failed to save run record", "error", err)
	}
}

func stepKey(step *models.Step) string {
	if step.UID != "" {
		return step.UID
	}

	return step.Name
}
