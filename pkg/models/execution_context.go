package models

// ExecutionContext carries the per-run state visible to actions: the event
// that started the run, the materialized environment and the accumulated step
// results. Env is materialized once before the first step and read-only for
// the rest of the run.
type ExecutionContext struct {
	RunID       string            `json:"run_id"`
	WorkflowID  string            `json:"workflow_id"`
	Event       Event             `json:"event"`
	Env         map[string]string `json:"env,omitempty"`
	StepResults map[string]any    `json:"step_results,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty"`

	// WorkDir is the run's scratch directory. Checkout clones into it,
	// shell commands execute inside it.
	WorkDir string `json:"work_dir,omitempty"`
}
