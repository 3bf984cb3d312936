// Package file provides file-based persistence for workflows and runs.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/conduitci/conduit/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of a directory of
// JSON documents. Intended for development and tests.
type Persistence struct {
	root         string
	workflowRepo *WorkflowRepository
	runRepo      *RunRepository
}

func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:         cleanRoot,
		workflowRepo: NewWorkflowRepository(cleanRoot),
		runRepo:      NewRunRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. Nothing to do for files.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}
