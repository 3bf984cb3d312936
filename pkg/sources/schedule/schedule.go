// Package schedule produces synthetic schedule events from a cron
// expression, for nightly builds and similar workflows.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/conduitci/conduit/pkg/models"
	"github.com/conduitci/conduit/pkg/protocol"
)

var ErrCronMissing = errors.New("schedule requires a cron expression")

// Source emits one schedule event per cron tick. Branch and repository are
// copied from the source configuration so triggers and guards can match
// scheduled runs the same way they match pushes.
type Source struct {
	expression string
	branch     string
	repository string
	cron       *cron.Cron
	logger     *slog.Logger
	mu         sync.Mutex
	started    bool
}

func NewSource(config map[string]any, logger *slog.Logger) *Source {
	expression, _ := config["cron"].(string)
	branch, _ := config["branch"].(string)
	repository, _ := config["repository"].(string)

	return &Source{
		expression: expression,
		branch:     branch,
		repository: repository,
		logger:     logger.With("module", "schedule_source", "cron", expression),
	}
}

func (s *Source) Validate() error {
	if s.expression == "" {
		return ErrCronMissing
	}

	if _, err := cron.ParseStandard(s.expression); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.expression, err)
	}

	return nil
}

// Start schedules ticks until the context is cancelled.
func (s *Source) Start(ctx context.Context, callback protocol.SourceCallback) error {
	if err := s.Validate(); err != nil {
		return err
	}

	s.mu.Lock()

	if s.started {
		s.mu.Unlock()

		return nil
	}

	s.cron = cron.New()
	s.started = true
	s.mu.Unlock()

	_, err := s.cron.AddFunc(s.expression, func() {
		event := s.newEvent()

		s.logger.Info("Schedule fired", "event_id", event.ID)

		if err := callback(ctx, event); err != nil {
			s.logger.Error("Error delivering schedule event", "event_id", event.ID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule cron job: %w", err)
	}

	s.logger.Info("Starting schedule source")
	s.cron.Start()

	<-ctx.Done()

	return s.Stop(context.WithoutCancel(ctx))
}

func (s *Source) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info("Stopping schedule source")
	<-s.cron.Stop().Done()
	s.started = false

	return nil
}

func (s *Source) newEvent() models.Event {
	return models.Event{
		ID:         uuid.New().String(),
		Type:       models.EventTypeSchedule,
		Branch:     s.branch,
		Repository: s.repository,
		Payload: map[string]any{
			"cron":         s.expression,
			"scheduled_at": time.Now().UTC().Format(time.RFC3339),
		},
		ReceivedAt: time.Now().UTC(),
	}
}
