// Package events defines event types and structures for run lifecycle notifications.
package events

import (
	"time"

	"github.com/conduitci/conduit/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries all run lifecycle events.
const Topic = "conduit.runs"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunRequestedEvent EventType = "run.requested"
	RunStartedEvent   EventType = "run.started"
	RunSkippedEvent   EventType = "run.skipped"
	RunSucceededEvent EventType = "run.succeeded"
	RunFailedEvent    EventType = "run.failed"

	StepStartedEvent  EventType = "step.started"
	StepFinishedEvent EventType = "step.finished"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	RunID      string         `json:"run_id,omitempty"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps identity and time for an event about a workflow.
func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

// RunRequested asks a worker to execute a workflow for a source event.
type RunRequested struct {
	BaseEvent

	SourceEvent models.Event `json:"source_event"`
}

func (RunRequested) GetType() EventType { return RunRequestedEvent }

type RunStarted struct {
	BaseEvent
}

func (RunStarted) GetType() EventType { return RunStartedEvent }

// RunSkipped marks a guard rejection: a terminal, non-error outcome.
type RunSkipped struct {
	BaseEvent

	Reason string `json:"reason,omitempty"`
}

func (RunSkipped) GetType() EventType { return RunSkippedEvent }

type RunSucceeded struct {
	BaseEvent

	Duration time.Duration `json:"duration"`
}

func (RunSucceeded) GetType() EventType { return RunSucceededEvent }

type RunFailed struct {
	BaseEvent

	FailedStep string        `json:"failed_step,omitempty"`
	Error      string        `json:"error"`
	Duration   time.Duration `json:"duration"`
}

func (RunFailed) GetType() EventType { return RunFailedEvent }

type StepStarted struct {
	BaseEvent

	StepName string `json:"step_name"`
	StepUID  string `json:"step_uid,omitempty"`
	Position int    `json:"position"`
}

func (StepStarted) GetType() EventType { return StepStartedEvent }

type StepFinished struct {
	BaseEvent

	StepName string        `json:"step_name"`
	StepUID  string        `json:"step_uid,omitempty"`
	Position int           `json:"position"`
	Duration time.Duration `json:"duration"`
}

func (StepFinished) GetType() EventType { return StepFinishedEvent }
