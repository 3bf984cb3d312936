// Package checkout clones the event's repository into the run work directory.
package checkout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/conduitci/conduit/pkg/models"
	"github.com/conduitci/conduit/pkg/template"
)

const defaultTimeout = 5 * time.Minute

var ErrRepositoryUnknown = errors.New("checkout requires a repository, from config or the event")

// Action clones a repository at a ref. Defaults come from the event: its
// repository and branch.
type Action struct {
	Repository string
	Ref        string
	Depth      int
	BaseURL    string
	Dest       string
}

func NewAction(config map[string]any) (*Action, error) {
	repository, _ := config["repository"].(string)
	ref, _ := config["ref"].(string)
	dest, _ := config["dest"].(string)

	baseURL, _ := config["base_url"].(string)
	if baseURL == "" {
		baseURL = "https://github.com"
	}

	depth := 1

	switch d := config["depth"].(type) {
	case float64:
		depth = int(d)
	case int:
		depth = d
	case string:
		parsed, err := strconv.Atoi(d)
		if err != nil {
			return nil, fmt.Errorf("invalid checkout depth %q: %w", d, err)
		}

		depth = parsed
	}

	return &Action{
		Repository: repository,
		Ref:        ref,
		Depth:      depth,
		BaseURL:    baseURL,
		Dest:       dest,
	}, nil
}

func (a *Action) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("module", "checkout_action")

	repository := a.Repository
	if repository == "" {
		repository = executionCtx.Event.Repository
	}

	if repository == "" {
		return nil, ErrRepositoryUnknown
	}

	ref := a.Ref
	if ref == "" {
		ref = executionCtx.Event.Branch
	}

	dest := a.Dest
	if dest == "" {
		dest = "."
	} else {
		rendered, err := template.RenderString(dest, &executionCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to render dest: %w", err)
		}

		dest = rendered
	}

	url := a.BaseURL + "/" + repository + ".git"

	args := []string{"clone", "--depth", strconv.Itoa(a.Depth)}
	if ref != "" {
		args = append(args, "--branch", ref)
	}

	args = append(args, url, dest)

	logger.InfoContext(ctx, "Cloning repository", "repository", repository, "ref", ref, "depth", a.Depth)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = executionCtx.WorkDir
	cmd.Env = mergedEnv(executionCtx.Env)

	var out bytes.Buffer

	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err != nil {
		return map[string]any{"output": out.String()},
			fmt.Errorf("git clone of %s failed: %w", repository, err)
	}

	return map[string]any{
		"repository": repository,
		"ref":        ref,
		"path":       dest,
		"output":     out.String(),
	}, nil
}

// mergedEnv layers the run environment over the process environment, so
// credentials like GIT_SSH_COMMAND declared in the workflow reach git.
func mergedEnv(runEnv map[string]string) []string {
	env := os.Environ()
	for name, value := range runEnv {
		env = append(env, name+"="+value)
	}

	return env
}
