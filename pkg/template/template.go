// Package template renders dynamic values in workflow environments and step
// parameters against the run context.
package template

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/conduitci/conduit/pkg/models"
)

// RenderWithContext renders input against the run context. Templates can
// reference {{.event.*}}, {{.env.*}}, {{.steps.*}} and {{.run.*}}.
func RenderWithContext(input string, executionCtx *models.ExecutionContext) (any, error) {
	data := map[string]any{
		"event": map[string]any{
			"type":       executionCtx.Event.Type,
			"branch":     executionCtx.Event.Branch,
			"repository": executionCtx.Event.Repository,
			"payload":    executionCtx.Event.Payload,
		},
		"env":   executionCtx.Env,
		"steps": executionCtx.StepResults,
		"run": map[string]any{
			"id":          executionCtx.RunID,
			"workflow_id": executionCtx.WorkflowID,
			"work_dir":    executionCtx.WorkDir,
		},
	}

	return Render(input, data)
}

// RenderString is RenderWithContext for callers that need a plain string.
func RenderString(input string, executionCtx *models.ExecutionContext) (string, error) {
	rendered, err := RenderWithContext(input, executionCtx)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%v", rendered), nil
}

// RenderConfig renders every string value of a configuration map in place
// order, returning a new map. Non-string values pass through untouched.
func RenderConfig(config map[string]any, executionCtx *models.ExecutionContext) (map[string]any, error) {
	rendered := make(map[string]any, len(config))

	for key, value := range config {
		str, ok := value.(string)
		if !ok {
			rendered[key] = value

			continue
		}

		out, err := RenderWithContext(str, executionCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to render config key %q: %w", key, err)
		}

		rendered[key] = out
	}

	return rendered, nil
}

func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.
		New("render").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	// JSON-looking output decodes into structured data.
	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		if err := json.Unmarshal([]byte(result), &jsonResult); err == nil {
			return jsonResult, nil
		}
	}

	return result, nil
}
