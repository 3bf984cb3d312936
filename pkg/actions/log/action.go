// Package log provides a step action that writes a templated message to
// the run log, useful for debugging workflow documents.
package log

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/conduitci/conduit/pkg/models"
	"github.com/conduitci/conduit/pkg/template"
)

var ErrMessageMissing = errors.New("log requires a message")

// Action logs a rendered message at a configurable level.
type Action struct {
	Message string
	Level   string
}

func NewAction(config map[string]any) (*Action, error) {
	message, _ := config["message"].(string)
	if message == "" {
		return nil, ErrMessageMissing
	}

	level, _ := config["level"].(string)
	if level == "" {
		level = "info"
	}

	return &Action{Message: message, Level: level}, nil
}

func (a *Action) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("module", "log_action")

	message, err := template.RenderString(a.Message, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render message: %w", err)
	}

	switch a.Level {
	case "debug":
		logger.DebugContext(ctx, message)
	case "warn", "warning":
		logger.WarnContext(ctx, message)
	case "error":
		logger.ErrorContext(ctx, message)
	default:
		logger.InfoContext(ctx, message)
	}

	return map[string]any{
		"message": message,
		"level":   a.Level,
	}, nil
}
