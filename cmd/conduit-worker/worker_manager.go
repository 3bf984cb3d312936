package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/conduitci/conduit/pkg/eventbus"
	"github.com/conduitci/conduit/pkg/events"
	"github.com/conduitci/conduit/pkg/persistence"
	"github.com/conduitci/conduit/pkg/registry"
	"github.com/conduitci/conduit/pkg/workflow"
)

// WorkerManager subscribes to RunRequested events and executes the
// referenced workflow for the requested source event.
type WorkerManager struct {
	id         string
	logger     *slog.Logger
	store      persistence.Persistence
	repository *workflow.Repository
	registry   *registry.Registry
	eventBus   eventbus.EventBus
}

func NewWorkerManager(
	id string,
	store persistence.Persistence,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	registry *registry.Registry,
) *WorkerManager {
	return &WorkerManager{
		id:         id,
		logger:     logger.With("module", "conduit-worker", "worker_id", id),
		store:      store,
		repository: workflow.NewRepository(store),
		registry:   registry,
		eventBus:   eventBus,
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	if err := w.eventBus.Handle(events.RunRequestedEvent, w.handleRunRequested); err != nil {
		return err
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

func (w *WorkerManager) handleRunRequested(ctx context.Context, event any) error {
	request, ok := event.(*events.RunRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for RunRequested")

		return nil
	}

	logger := w.logger.With("workflow_id", request.WorkflowID, "event_id", request.ID)
	logger.InfoContext(ctx, "Processing run request")

	workflowItem, err := w.repository.FetchByID(ctx, request.WorkflowID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to fetch workflow", "error", err)

		return err
	}

	runner := workflow.NewRunner(
		w.registry,
		logger,
		workflow.WithPersistence(w.store),
		workflow.WithPublisher(w.eventBus),
		workflow.WithWorkerID(w.id),
	)

	run, err := runner.Execute(ctx, workflowItem, request.SourceEvent)
	if err != nil {
		// The run record and the RunFailed event already carry the error;
		// returning it would only make the bus redeliver the request.
		logger.ErrorContext(ctx, "Run failed", "error", err)

		return nil
	}

	if run != nil {
		logger.InfoContext(ctx, "Run finished", "run_id", run.ID, "status", run.Status)
	}

	return nil
}
