// Package models defines the core domain models for declarative workflow execution.
package models

import "time"

// Well-known event types. Sources may emit arbitrary types; these are the
// ones the built-in sources produce.
const (
	EventTypePush        = "push"
	EventTypePullRequest = "pull_request"
	EventTypeSchedule    = "schedule"
)

// Event is an external event descriptor delivered by a source (webhook,
// schedule, queue or the CLI). It is immutable once delivered.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"                 validate:"required"`
	Branch     string         `json:"branch,omitempty"`
	Repository string         `json:"repository,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	ReceivedAt time.Time      `json:"received_at"`
}
