// Package shell executes "run:" workflow steps through the system shell.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/conduitci/conduit/pkg/models"
	"github.com/conduitci/conduit/pkg/template"
)

const defaultTimeout = 10 * time.Minute

var ErrCommandMissing = errors.New("shell action requires a 'command'")

// Action runs a single shell command inside the run's work directory with
// the materialized environment. A non-zero exit halts the run.
type Action struct {
	Command string
	Shell   string
	Timeout time.Duration
}

func NewAction(config map[string]any) (*Action, error) {
	command, _ := config["command"].(string)
	if command == "" {
		return nil, ErrCommandMissing
	}

	shell, _ := config["shell"].(string)
	if shell == "" {
		shell = "sh"
	}

	timeout := defaultTimeout
	if seconds, ok := config["timeout"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	return &Action{
		Command: command,
		Shell:   shell,
		Timeout: timeout,
	}, nil
}

func (a *Action) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("module", "shell_action")

	command, err := template.RenderString(a.Command, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render command: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.Shell, "-c", command)
	cmd.Dir = executionCtx.WorkDir
	cmd.Env = mergedEnv(executionCtx.Env)

	var out bytes.Buffer

	cmd.Stdout = &out
	cmd.Stderr = &out

	logger.InfoContext(ctx, "Executing shell command", "command", command)

	err = cmd.Run()

	result := map[string]any{
		"command": command,
		"output":  out.String(),
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result["exit_code"] = exitErr.ExitCode()

		return result, fmt.Errorf("command exited with code %d: %w", exitErr.ExitCode(), err)
	}

	if err != nil {
		return result, fmt.Errorf("command failed to start: %w", err)
	}

	result["exit_code"] = 0

	return result, nil
}

// mergedEnv layers the run environment over the process environment.
func mergedEnv(runEnv map[string]string) []string {
	env := os.Environ()
	for name, value := range runEnv {
		env = append(env, name+"="+value)
	}

	return env
}
