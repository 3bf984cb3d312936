package models

import (
	"fmt"
	"time"
)

// Workflow is a stored declarative workflow: one trigger, an optional guard,
// an environment mapping and an ordered list of steps.
type Workflow struct {
	ID          string            `yaml:"-"                     json:"id"`
	Name        string            `yaml:"name"                  json:"name"        validate:"required,min=3"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	On          *Trigger          `yaml:"on"                    json:"on"          validate:"required"`
	Guard       *Guard            `yaml:"guard,omitempty"       json:"guard,omitempty"`
	Env         map[string]string `yaml:"env,omitempty"         json:"env,omitempty"`
	Steps       []*Step           `yaml:"steps"                 json:"steps"       validate:"required,min=1"`
	Metadata    map[string]any    `yaml:"-"                     json:"metadata,omitempty"`
	CreatedAt   time.Time         `yaml:"-"                     json:"created_at"`
	UpdatedAt   time.Time         `yaml:"-"                     json:"updated_at"`
	DeletedAt   *time.Time        `yaml:"-"                     json:"deleted_at,omitempty"`
}

// Validate checks the step-level invariants that struct tags cannot express.
func (w *Workflow) Validate() error {
	seen := make(map[string]struct{}, len(w.Steps))

	for i, step := range w.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Name, err)
		}

		if step.UID == "" {
			continue
		}

		if _, dup := seen[step.UID]; dup {
			return fmt.Errorf("step %d (%s): duplicate step id %q", i, step.Name, step.UID)
		}

		seen[step.UID] = struct{}{}
	}

	return nil
}
