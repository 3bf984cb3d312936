package publish

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitci/conduit/pkg/models"
)

func TestNewAction(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		action, err := NewAction(map[string]any{"dir": "public"})
		require.NoError(t, err)

		assert.Equal(t, "public", action.Dir)
		assert.Equal(t, "gh-pages", action.Ref)
		assert.Equal(t, "https://github.com", action.BaseURL)
	})

	t.Run("requires a dir", func(t *testing.T) {
		_, err := NewAction(map[string]any{"ref": "gh-pages"})
		require.ErrorIs(t, err, ErrDirMissing)
	})
}

func TestAction_Execute_RequiresRepository(t *testing.T) {
	action, err := NewAction(map[string]any{"dir": "public"})
	require.NoError(t, err)

	_, err = action.Execute(context.Background(), models.ExecutionContext{}, slog.Default())
	require.ErrorIs(t, err, ErrRepositoryUnknown)
}

func TestAction_Execute_PushesDirectoryToRef(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	remotes := t.TempDir()
	bare := filepath.Join(remotes, "site.git")
	runGitCommand(t, remotes, "init", "--bare", "--quiet", bare)

	workDir := t.TempDir()
	artifacts := filepath.Join(workDir, "public")
	require.NoError(t, os.MkdirAll(artifacts, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(artifacts, "index.html"), []byte("<h1>docs</h1>"), 0600))

	action, err := NewAction(map[string]any{
		"dir":      "public",
		"base_url": "file://" + remotes,
		"message":  "publish {{.run.id}}",
	})
	require.NoError(t, err)

	execCtx := models.ExecutionContext{
		RunID:   "run-publish1",
		WorkDir: workDir,
		Event:   models.Event{Repository: "site"},
	}

	result, err := action.Execute(context.Background(), execCtx, slog.Default())
	require.NoError(t, err)

	resultMap, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "gh-pages", resultMap["ref"])
	assert.NotEmpty(t, resultMap["commit"])

	tree := runGitCommand(t, remotes, "--git-dir", bare, "ls-tree", "--name-only", "gh-pages")
	assert.Contains(t, tree, "index.html")

	subject := runGitCommand(t, remotes, "--git-dir", bare, "log", "-1", "--format=%s", "gh-pages")
	assert.Equal(t, "publish run-publish1", strings.TrimSpace(subject))
}

func TestAction_Execute_RunEnvReachesGit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	remotes := t.TempDir()
	bare := filepath.Join(remotes, "site.git")
	runGitCommand(t, remotes, "init", "--bare", "--quiet", bare)

	workDir := t.TempDir()
	artifacts := filepath.Join(workDir, "public")
	require.NoError(t, os.MkdirAll(artifacts, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(artifacts, "index.html"), []byte("<h1>docs</h1>"), 0600))

	action, err := NewAction(map[string]any{
		"dir":      "public",
		"base_url": "file://" + remotes,
	})
	require.NoError(t, err)

	// GIT_AUTHOR_NAME from the environment wins over the user.name config
	// the commit step sets, so seeing it on the commit proves the run env
	// reached the git subprocesses.
	execCtx := models.ExecutionContext{
		RunID:   "run-publish2",
		WorkDir: workDir,
		Event:   models.Event{Repository: "site"},
		Env:     map[string]string{"GIT_AUTHOR_NAME": "workflow-bot"},
	}

	_, err = action.Execute(context.Background(), execCtx, slog.Default())
	require.NoError(t, err)

	author := runGitCommand(t, remotes, "--git-dir", bare, "log", "-1", "--format=%an", "gh-pages")
	assert.Equal(t, "workflow-bot", strings.TrimSpace(author))
}

func TestAction_Execute_NamesFailedGitStep(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	workDir := t.TempDir()
	artifacts := filepath.Join(workDir, "public")
	require.NoError(t, os.MkdirAll(artifacts, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(artifacts, "index.html"), []byte("<h1>docs</h1>"), 0600))

	action, err := NewAction(map[string]any{
		"dir":      "public",
		"base_url": "file://" + filepath.Join(t.TempDir(), "missing"),
	})
	require.NoError(t, err)

	execCtx := models.ExecutionContext{
		RunID:   "run-publish3",
		WorkDir: workDir,
		Event:   models.Event{Repository: "site"},
	}

	_, err = action.Execute(context.Background(), execCtx, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git push failed")
}

func runGitCommand(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))

	return string(out)
}
