package workflow

import (
	"log/slog"

	"github.com/conduitci/conduit/pkg/models"
)

// Matcher finds the stored workflows whose trigger matches an incoming
// event. The guard is deliberately not consulted here: a matched workflow
// always gets a run, the guard only decides whether that run is skipped.
type Matcher struct {
	logger *slog.Logger
}

func NewMatcher(logger *slog.Logger) *Matcher {
	return &Matcher{
		logger: logger.With("module", "trigger_matcher"),
	}
}

// Match returns the workflows triggered by the event, in input order.
func (m *Matcher) Match(event models.Event, workflows []*models.Workflow) []*models.Workflow {
	matched := make([]*models.Workflow, 0)

	for _, workflow := range workflows {
		if workflow.DeletedAt != nil {
			continue
		}

		if !workflow.On.Matches(event) {
			continue
		}

		m.logger.Debug("Trigger matched",
			"workflow_id", workflow.ID,
			"workflow_name", workflow.Name,
			"event_type", event.Type,
			"branch", event.Branch)

		matched = append(matched, workflow)
	}

	m.logger.Info("Completed trigger matching",
		"event_type", event.Type,
		"workflows_checked", len(workflows),
		"matches", len(matched))

	return matched
}
