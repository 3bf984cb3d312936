package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a workflow run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusSkipped   RunStatus = "skipped"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// runTransitions encodes the run state machine:
// Pending -> Skipped | Running; Running -> Succeeded | Failed.
// Skipped, Succeeded and Failed are terminal.
var runTransitions = map[RunStatus][]RunStatus{
	RunStatusPending: {RunStatusSkipped, RunStatusRunning},
	RunStatusRunning: {RunStatusSucceeded, RunStatusFailed},
}

// Terminal reports whether no further transition is possible.
func (s RunStatus) Terminal() bool {
	return len(runTransitions[s]) == 0
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	for _, allowed := range runTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// StepResult records the outcome of a single executed step.
type StepResult struct {
	StepUID    string     `json:"step_uid,omitempty"`
	Name       string     `json:"name"`
	Output     any        `json:"output,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// WorkflowRun is one execution of a workflow for one event. It starts Pending
// and ends in exactly one terminal state.
type WorkflowRun struct {
	ID          string            `json:"id"`
	WorkflowID  string            `json:"workflow_id"`
	Status      RunStatus         `json:"status"`
	Event       Event             `json:"event"`
	Environment map[string]string `json:"environment,omitempty"`
	StepResults []*StepResult     `json:"step_results,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	FinishedAt  *time.Time        `json:"finished_at,omitempty"`
}

// NewWorkflowRun creates a Pending run for the workflow and event.
func NewWorkflowRun(workflowID string, event Event) *WorkflowRun {
	return &WorkflowRun{
		ID:         "run-" + uuid.New().String()[:8],
		WorkflowID: workflowID,
		Status:     RunStatusPending,
		Event:      event,
		CreatedAt:  time.Now().UTC(),
	}
}

// Transition moves the run to the next status, enforcing the state machine,
// and stamps StartedAt/FinishedAt on the relevant edges.
func (r *WorkflowRun) Transition(next RunStatus) error {
	if !r.Status.CanTransitionTo(next) {
		return fmt.Errorf("illegal run transition %s -> %s", r.Status, next)
	}

	now := time.Now().UTC()

	switch next {
	case RunStatusRunning:
		r.StartedAt = &now
	case RunStatusSkipped, RunStatusSucceeded, RunStatusFailed:
		r.FinishedAt = &now
	}

	r.Status = next

	return nil
}

// Duration returns the wall-clock time between start and finish, zero while
// the run has not finished.
func (r *WorkflowRun) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}

	return r.FinishedAt.Sub(*r.StartedAt)
}
