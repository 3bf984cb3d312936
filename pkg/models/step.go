package models

import "errors"

// ActionIDShell executes "run:" steps through the shell action.
const ActionIDShell = "shell"

var (
	ErrStepActionMissing  = errors.New("step must declare either 'uses' or 'run'")
	ErrStepActionConflict = errors.New("step cannot declare both 'uses' and 'run'")
)

// Step is a single ordered unit of work inside a workflow. It either runs a
// shell command ("run:") or invokes a named reusable action ("uses:") with a
// key-value parameter set. Steps execute strictly in declaration order.
type Step struct {
	UID  string `yaml:"id,omitempty"   json:"uid,omitempty"  validate:"omitempty,lowercase"`
	Name string `yaml:"name"           json:"name"           validate:"required"`
	Uses string `yaml:"uses,omitempty" json:"uses,omitempty"`
	Run  string `yaml:"run,omitempty"  json:"run,omitempty"`

	// With holds action parameters for "uses:" steps.
	With map[string]any `yaml:"with,omitempty" json:"with,omitempty"`

	// Env is merged over the workflow environment for this step only.
	Env map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
}

// ActionID resolves the registry identifier of the action backing this step.
func (s *Step) ActionID() string {
	if s.Run != "" {
		return ActionIDShell
	}

	return s.Uses
}

// Validate checks the uses/run invariant: exactly one of the two.
func (s *Step) Validate() error {
	if s.Uses == "" && s.Run == "" {
		return ErrStepActionMissing
	}

	if s.Uses != "" && s.Run != "" {
		return ErrStepActionConflict
	}

	return nil
}

// Config builds the action configuration for this step. For shell steps the
// command travels under "command"; for reusable actions the With parameters
// are passed through.
func (s *Step) Config() map[string]any {
	config := make(map[string]any, len(s.With)+2)
	for k, v := range s.With {
		config[k] = v
	}

	if s.Run != "" {
		config["command"] = s.Run
	}

	return config
}
