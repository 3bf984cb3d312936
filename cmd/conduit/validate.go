package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/conduitci/conduit/pkg/workflow"
)

// ValidateCommand checks a workflow file against the document schema and
// the model invariants without executing anything.
func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate a workflow file",
		ArgsUsage: "<workflow-file>",
		Action: func(_ context.Context, command *cli.Command) error {
			path := command.Args().First()
			if path == "" {
				return cli.Exit("workflow file argument is required", 2)
			}

			loaded, err := workflow.Load(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("invalid workflow: %v", err), 1)
			}

			fmt.Fprintf(command.Writer, "workflow %q is valid (%d steps)\n", loaded.Name, len(loaded.Steps))

			return nil
		},
	}
}
