// Package publish pushes a directory of build artifacts to a git ref,
// typically a gh-pages style branch.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/conduitci/conduit/pkg/models"
	"github.com/conduitci/conduit/pkg/template"
)

const defaultTimeout = 5 * time.Minute

var (
	ErrDirMissing        = errors.New("publish requires a dir to publish")
	ErrRepositoryUnknown = errors.New("publish requires a repository, from config or the event")
)

// Action publishes the contents of Dir as a fresh commit on Ref, replacing
// whatever history the ref had. Dir is resolved relative to the run work
// directory.
type Action struct {
	Dir        string
	Ref        string
	Repository string
	BaseURL    string
	Message    string
}

func NewAction(config map[string]any) (*Action, error) {
	dir, _ := config["dir"].(string)
	if dir == "" {
		return nil, ErrDirMissing
	}

	ref, _ := config["ref"].(string)
	if ref == "" {
		ref = "gh-pages"
	}

	repository, _ := config["repository"].(string)

	baseURL, _ := config["base_url"].(string)
	if baseURL == "" {
		baseURL = "https://github.com"
	}

	message, _ := config["message"].(string)
	if message == "" {
		message = "Publish from run {{.run.id}}"
	}

	return &Action{
		Dir:        dir,
		Ref:        ref,
		Repository: repository,
		BaseURL:    baseURL,
		Message:    message,
	}, nil
}

func (a *Action) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("module", "publish_action")

	repository := a.Repository
	if repository == "" {
		repository = executionCtx.Event.Repository
	}

	if repository == "" {
		return nil, ErrRepositoryUnknown
	}

	dir, err := template.RenderString(a.Dir, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render dir: %w", err)
	}

	message, err := template.RenderString(a.Message, &executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render message: %w", err)
	}

	if !filepath.IsAbs(dir) {
		dir = filepath.Join(executionCtx.WorkDir, dir)
	}

	url := a.BaseURL + "/" + repository + ".git"

	logger.InfoContext(ctx, "Publishing directory", "dir", dir, "repository", repository, "ref", a.Ref)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var output bytes.Buffer

	env := mergedEnv(executionCtx.Env)

	steps := []struct {
		name string
		args []string
	}{
		{"init", []string{"init", "--quiet"}},
		{"add", []string{"add", "-A"}},
		{"commit", []string{"-c", "user.name=conduit", "-c", "user.email=conduit@localhost", "commit", "--quiet", "-m", message}},
		{"push", []string{"push", "--force", "--quiet", url, "HEAD:refs/heads/" + a.Ref}},
	}

	for _, step := range steps {
		if err := runGit(ctx, dir, env, &output, step.args...); err != nil {
			return map[string]any{"output": output.String()},
				fmt.Errorf("git %s failed: %w", step.name, err)
		}
	}

	var commit bytes.Buffer
	if err := runGit(ctx, dir, env, &commit, "rev-parse", "HEAD"); err != nil {
		return map[string]any{"output": output.String()},
			fmt.Errorf("git rev-parse failed: %w", err)
	}

	return map[string]any{
		"repository": repository,
		"ref":        a.Ref,
		"commit":     strings.TrimSpace(commit.String()),
		"output":     output.String(),
	}, nil
}

func runGit(ctx context.Context, dir string, env []string, out *bytes.Buffer, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = out
	cmd.Stderr = out

	return cmd.Run()
}

// mergedEnv layers the run environment over the process environment, so a
// push token declared in the workflow env reaches git.
func mergedEnv(runEnv map[string]string) []string {
	env := os.Environ()
	for name, value := range runEnv {
		env = append(env, name+"="+value)
	}

	return env
}
