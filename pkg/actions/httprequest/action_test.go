package httprequest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitci/conduit/pkg/models"
)

func TestNewAction(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		action, err := NewAction(map[string]any{"url": "http://example.com/hook"})
		require.NoError(t, err)

		assert.Equal(t, http.MethodGet, action.Method)
		assert.Equal(t, 1, action.Retry.Attempts)
	})

	t.Run("requires a url", func(t *testing.T) {
		_, err := NewAction(map[string]any{"method": "POST"})
		require.ErrorIs(t, err, ErrURLMissing)
	})

	t.Run("parses retry config", func(t *testing.T) {
		action, err := NewAction(map[string]any{
			"url":   "http://example.com",
			"retry": map[string]any{"attempts": float64(3), "delay": float64(2)},
		})
		require.NoError(t, err)

		assert.Equal(t, 3, action.Retry.Attempts)
	})
}

func TestAction_Execute_PostsRenderedBody(t *testing.T) {
	var received string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received = string(body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"delivered": true}`))
	}))
	defer server.Close()

	action, err := NewAction(map[string]any{
		"url":    server.URL,
		"method": "POST",
		"body":   `run {{.run.id}} on {{.event.branch}}`,
	})
	require.NoError(t, err)

	execCtx := models.ExecutionContext{
		RunID: "run-http1",
		Event: models.Event{Branch: "main"},
	}

	result, err := action.Execute(context.Background(), execCtx, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, "run run-http1 on main", received)

	resultMap, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, resultMap["status_code"])
	assert.Equal(t, map[string]any{"delivered": true}, resultMap["body"])
}

func TestAction_Execute_PostsStructuredBodyAsJSON(t *testing.T) {
	var received []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)

		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	action, err := NewAction(map[string]any{
		"url":    server.URL,
		"method": "POST",
		"body": map[string]any{
			"run":      "{{.run.id}}",
			"workflow": "{{.run.workflow_id}}",
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, action.Body)

	execCtx := models.ExecutionContext{
		RunID:      "run-http2",
		WorkflowID: "wf-docs",
	}

	_, err = action.Execute(context.Background(), execCtx, slog.Default())
	require.NoError(t, err)

	var decoded map[string]any

	require.NoError(t, json.Unmarshal(received, &decoded))
	assert.Equal(t, map[string]any{"run": "run-http2", "workflow": "wf-docs"}, decoded)
}

func TestAction_Execute_RetriesOnServerError(t *testing.T) {
	var calls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	action, err := NewAction(map[string]any{
		"url":   server.URL,
		"retry": map[string]any{"attempts": float64(2)},
	})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), models.ExecutionContext{}, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, 2, calls)

	resultMap, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, resultMap["status_code"])
	assert.Equal(t, "ok", resultMap["body"])
}

func TestAction_Execute_ReturnsFinalServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	action, err := NewAction(map[string]any{"url": server.URL})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), models.ExecutionContext{}, slog.Default())
	require.NoError(t, err)

	resultMap, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, resultMap["status_code"])
}
