// Package workflow implements the runner: trigger matching, guard
// evaluation and ordered step execution for stored workflow documents.
package workflow

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conduitci/conduit/pkg/models"
)

// Load reads and parses a workflow document from disk.
func Load(path string) (*models.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a YAML workflow document, validates it against the document
// schema and the model invariants, and returns the workflow.
func Parse(data []byte) (*models.Workflow, error) {
	var document map[string]any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("failed to decode workflow document: %w", err)
	}

	if err := models.ValidateWorkflowDocument(document); err != nil {
		return nil, err
	}

	var workflow models.Workflow
	if err := yaml.Unmarshal(data, &workflow); err != nil {
		return nil, fmt.Errorf("failed to decode workflow document: %w", err)
	}

	if err := workflow.Validate(); err != nil {
		return nil, err
	}

	if workflow.ID == "" {
		workflow.ID = slugify(workflow.Name)
	}

	return &workflow, nil
}

func slugify(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
}
