// Package web provides the HTTP API for workflow management and event
// injection.
package web

import (
	"time"

	"github.com/google/uuid"

	"github.com/conduitci/conduit/pkg/models"
)

// CreateWorkflowRequest is the body for registering a new workflow.
type CreateWorkflowRequest struct {
	Name        string            `json:"name"                  validate:"required,min=3"`
	Description string            `json:"description,omitempty"`
	On          *models.Trigger   `json:"on"                    validate:"required"`
	Guard       *models.Guard     `json:"guard,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	Steps       []*models.Step    `json:"steps"                 validate:"required,min=1"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
}

func (r *CreateWorkflowRequest) ToWorkflow() *models.Workflow {
	return &models.Workflow{
		Name:        r.Name,
		Description: r.Description,
		On:          r.On,
		Guard:       r.Guard,
		Env:         r.Env,
		Steps:       r.Steps,
		Metadata:    r.Metadata,
	}
}

// UpdateWorkflowRequest supports partial updates. Nil fields keep their
// stored value.
type UpdateWorkflowRequest struct {
	Name        *string           `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string           `json:"description,omitempty"`
	On          *models.Trigger   `json:"on,omitempty"`
	Guard       *models.Guard     `json:"guard,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	Steps       []*models.Step    `json:"steps,omitempty"       validate:"omitempty,min=1"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
}

func (r *UpdateWorkflowRequest) ApplyTo(workflow *models.Workflow) {
	if r.Name != nil {
		workflow.Name = *r.Name
	}

	if r.Description != nil {
		workflow.Description = *r.Description
	}

	if r.On != nil {
		workflow.On = r.On
	}

	if r.Guard != nil {
		workflow.Guard = r.Guard
	}

	if r.Env != nil {
		workflow.Env = r.Env
	}

	if r.Steps != nil {
		workflow.Steps = r.Steps
	}

	if r.Metadata != nil {
		workflow.Metadata = r.Metadata
	}
}

// InjectEventRequest is the body for POST /events.
type InjectEventRequest struct {
	Type       string         `json:"type"                 validate:"required"`
	Branch     string         `json:"branch,omitempty"`
	Repository string         `json:"repository,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}

func (r *InjectEventRequest) ToEvent() models.Event {
	return models.Event{
		ID:         uuid.New().String(),
		Type:       r.Type,
		Branch:     r.Branch,
		Repository: r.Repository,
		Payload:    r.Payload,
		ReceivedAt: time.Now().UTC(),
	}
}
