// Package protocol defines the interfaces between the runner and its
// pluggable collaborators: step actions and event sources.
package protocol

import (
	"context"
	"log/slog"

	"github.com/conduitci/conduit/pkg/models"
)

// Action is one executable step implementation. The runner treats it as a
// black box: a nil error is success, anything else halts the run.
type Action interface {
	Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error)
}

// ActionFactory creates Action instances from step configuration.
type ActionFactory interface {
	Create(config map[string]any) (Action, error)
	ID() string
}
