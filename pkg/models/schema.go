package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var ErrSchemaValidation = errors.New("workflow document does not match schema")

// WorkflowDocumentSchema is the JSON Schema for the on-disk workflow document
// (the YAML file decoded into generic maps).
func WorkflowDocumentSchema() map[string]any {
	branches := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}

	return map[string]any{
		"type":     "object",
		"required": []string{"name", "on", "steps"},
		"properties": map[string]any{
			"name":        map[string]any{"type": "string", "minLength": 3},
			"description": map[string]any{"type": "string"},
			"on": map[string]any{
				"type":     "object",
				"required": []string{"event"},
				"properties": map[string]any{
					"event":    map[string]any{"type": "string"},
					"branches": branches,
				},
			},
			"guard": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"repository": map[string]any{"type": "string"},
					"branch":     map[string]any{"type": "string"},
					"conditions": map[string]any{"type": "object"},
				},
			},
			"env": map[string]any{"type": "object"},
			"steps": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":     "object",
					"required": []string{"name"},
					"properties": map[string]any{
						"id":   map[string]any{"type": "string"},
						"name": map[string]any{"type": "string"},
						"uses": map[string]any{"type": "string"},
						"run":  map[string]any{"type": "string"},
						"with": map[string]any{"type": "object"},
						"env":  map[string]any{"type": "object"},
					},
				},
			},
		},
	}
}

// ValidateWorkflowDocument validates a decoded workflow document against the
// schema and returns all violations in one error.
func ValidateWorkflowDocument(document map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(WorkflowDocumentSchema())
	documentLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		details = append(details, violation.String())
	}

	return fmt.Errorf("%w: %s", ErrSchemaValidation, strings.Join(details, "; "))
}
