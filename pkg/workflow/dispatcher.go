package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/conduitci/conduit/pkg/eventbus"
	"github.com/conduitci/conduit/pkg/events"
	"github.com/conduitci/conduit/pkg/models"
)

// Dispatcher fans an incoming event out to the workflows it triggers,
// publishing one RunRequested per match for workers to pick up.
type Dispatcher struct {
	repository *Repository
	matcher    *Matcher
	publisher  eventbus.EventPublisher
	logger     *slog.Logger
}

func NewDispatcher(repository *Repository, publisher eventbus.EventPublisher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		repository: repository,
		matcher:    NewMatcher(logger),
		publisher:  publisher,
		logger:     logger.With("module", "dispatcher"),
	}
}

// Dispatch matches the event against all stored workflows and requests a run
// for each match. It returns the IDs of the requested workflows.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.Event) ([]string, error) {
	workflows, err := d.repository.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflows: %w", err)
	}

	matched := d.matcher.Match(event, workflows)
	requested := make([]string, 0, len(matched))

	for _, workflow := range matched {
		request := &events.RunRequested{
			BaseEvent:   events.NewBaseEvent(events.RunRequestedEvent, workflow.ID),
			SourceEvent: event,
		}

		if err := d.publisher.Publish(ctx, workflow.ID, request); err != nil {
			return requested, fmt.Errorf("failed to request run for workflow %s: %w", workflow.ID, err)
		}

		d.logger.Info("Run requested", "workflow_id", workflow.ID, "event_type", event.Type)
		requested = append(requested, workflow.ID)
	}

	return requested, nil
}
