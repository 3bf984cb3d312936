package checkout

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/conduitci/conduit/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAction_Defaults(t *testing.T) {
	action, err := NewAction(map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, action.Repository)
	assert.Equal(t, 1, action.Depth)
	assert.Equal(t, "https://github.com", action.BaseURL)
}

func TestNewAction_DepthVariants(t *testing.T) {
	tests := []struct {
		name  string
		depth any
		want  int
	}{
		{name: "float from json", depth: float64(5), want: 5},
		{name: "int", depth: 3, want: 3},
		{name: "string", depth: "2", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := NewAction(map[string]any{"depth": tt.depth})
			require.NoError(t, err)
			assert.Equal(t, tt.want, action.Depth)
		})
	}
}

func TestNewAction_InvalidDepth(t *testing.T) {
	_, err := NewAction(map[string]any{"depth": "many"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid checkout depth")
}

func TestAction_Execute_NoRepository(t *testing.T) {
	action, err := NewAction(map[string]any{})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	_, err = action.Execute(context.Background(), models.ExecutionContext{
		WorkDir: t.TempDir(),
		Event:   models.Event{Type: "push"},
	}, logger)
	assert.ErrorIs(t, err, ErrRepositoryUnknown)
}

// seedOrigin builds a local origin so tests stay off the network; clone it
// with a file:// base URL.
func seedOrigin(t *testing.T) string {
	t.Helper()

	origin := t.TempDir()

	run := func(dir string, args ...string) {
		t.Helper()

		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}

	repoDir := origin + "/org/repo.git"
	require.NoError(t, os.MkdirAll(repoDir, 0750))
	run(repoDir, "init", "--bare", "--initial-branch=main")

	seed := t.TempDir()
	run(seed, "clone", repoDir, ".")
	run(seed, "-c", "user.email=ci@test", "-c", "user.name=ci", "commit", "--allow-empty", "-m", "seed")
	run(seed, "push", "origin", "HEAD:main")

	return origin
}

func TestAction_Execute_ClonesLocalRepository(t *testing.T) {
	origin := seedOrigin(t)

	action, err := NewAction(map[string]any{"base_url": "file://" + origin, "dest": "src"})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	workDir := t.TempDir()

	result, err := action.Execute(context.Background(), models.ExecutionContext{
		WorkDir: workDir,
		Event:   models.Event{Type: "push", Branch: "main", Repository: "org/repo"},
	}, logger)
	require.NoError(t, err)

	resultMap := result.(map[string]any)
	assert.Equal(t, "org/repo", resultMap["repository"])
	assert.Equal(t, "main", resultMap["ref"])
	assert.DirExists(t, workDir+"/src/.git")
}

func TestAction_Execute_RunEnvReachesGit(t *testing.T) {
	origin := seedOrigin(t)

	action, err := NewAction(map[string]any{"base_url": "file://" + origin, "dest": "src"})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// GIT_TRACE writes to the named file only when git sees the variable.
	trace := filepath.Join(t.TempDir(), "trace.log")

	_, err = action.Execute(context.Background(), models.ExecutionContext{
		WorkDir: t.TempDir(),
		Event:   models.Event{Type: "push", Branch: "main", Repository: "org/repo"},
		Env:     map[string]string{"GIT_TRACE": trace},
	}, logger)
	require.NoError(t, err)

	info, err := os.Stat(trace)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
