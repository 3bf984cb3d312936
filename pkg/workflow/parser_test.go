package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitci/conduit/pkg/models"
)

const docsDocument = `
name: docs
on:
  event: push
  branches: [main]
guard:
  repository: org/repo
env:
  CARGO_TERM_COLOR: always
steps:
  - name: checkout
    uses: checkout
    with: {depth: "1"}
  - name: build docs
    run: make docs
  - name: publish
    uses: publish
    with: {dir: ./target/doc, ref: gh-pages}
`

func TestParse(t *testing.T) {
	workflow, err := Parse([]byte(docsDocument))
	require.NoError(t, err)

	assert.Equal(t, "docs", workflow.ID)
	assert.Equal(t, "docs", workflow.Name)
	assert.Equal(t, models.EventTypePush, workflow.On.Event)
	assert.Equal(t, []string{"main"}, workflow.On.Branches)
	assert.Equal(t, "org/repo", workflow.Guard.Repository)
	assert.Equal(t, "always", workflow.Env["CARGO_TERM_COLOR"])

	require.Len(t, workflow.Steps, 3)
	assert.Equal(t, "checkout", workflow.Steps[0].ActionID())
	assert.Equal(t, "shell", workflow.Steps[1].ActionID())
	assert.Equal(t, "make docs", workflow.Steps[1].Run)
	assert.Equal(t, "gh-pages", workflow.Steps[2].With["ref"])
}

func TestParse_RejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name     string
		document string
	}{
		{
			name:     "missing trigger",
			document: "name: broken\nsteps:\n  - name: build\n    run: make\n",
		},
		{
			name:     "no steps",
			document: "name: broken\non:\n  event: push\nsteps: []\n",
		},
		{
			name:     "not yaml",
			document: "{{{",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.document))
			require.Error(t, err)
		})
	}
}

func TestParse_RejectsStepWithUsesAndRun(t *testing.T) {
	document := `
name: conflicted
on:
  event: push
steps:
  - name: both
    uses: checkout
    run: make
`

	_, err := Parse([]byte(document))
	require.ErrorIs(t, err, models.ErrStepActionConflict)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(docsDocument), 0600))

	workflow, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "docs", workflow.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
