package workflow

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/conduitci/conduit/pkg/models"
)

func TestMatcher_Match(t *testing.T) {
	pushMain := &models.Workflow{
		ID:    "wf-push-main",
		Name:  "push main",
		On:    &models.Trigger{Event: models.EventTypePush, Branches: []string{"main"}},
		Steps: []*models.Step{{Name: "build", Run: "make"}},
	}
	pushRelease := &models.Workflow{
		ID:    "wf-push-release",
		Name:  "push release",
		On:    &models.Trigger{Event: models.EventTypePush, Branches: []string{"release/*"}},
		Steps: []*models.Step{{Name: "build", Run: "make"}},
	}
	anyPullRequest := &models.Workflow{
		ID:    "wf-pr",
		Name:  "pull request",
		On:    &models.Trigger{Event: models.EventTypePullRequest},
		Steps: []*models.Step{{Name: "build", Run: "make"}},
	}

	deletedAt := time.Now()
	deleted := &models.Workflow{
		ID:        "wf-deleted",
		Name:      "deleted",
		On:        &models.Trigger{Event: models.EventTypePush, Branches: []string{"main"}},
		Steps:     []*models.Step{{Name: "build", Run: "make"}},
		DeletedAt: &deletedAt,
	}

	workflows := []*models.Workflow{pushMain, pushRelease, anyPullRequest, deleted}
	matcher := NewMatcher(slog.Default())

	tests := []struct {
		name    string
		event   models.Event
		matched []string
	}{
		{
			name:    "push to main",
			event:   models.Event{Type: models.EventTypePush, Branch: "main"},
			matched: []string{"wf-push-main"},
		},
		{
			name:    "push to release branch matches wildcard",
			event:   models.Event{Type: models.EventTypePush, Branch: "release/1.2"},
			matched: []string{"wf-push-release"},
		},
		{
			name:    "pull request on any branch",
			event:   models.Event{Type: models.EventTypePullRequest, Branch: "feature/x"},
			matched: []string{"wf-pr"},
		},
		{
			name:    "unknown event type",
			event:   models.Event{Type: "tag", Branch: "main"},
			matched: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched := matcher.Match(tt.event, workflows)

			ids := make([]string, 0, len(matched))
			for _, workflow := range matched {
				ids = append(ids, workflow.ID)
			}

			assert.Equal(t, tt.matched, ids)
		})
	}
}
