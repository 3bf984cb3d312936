package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/conduitci/conduit/pkg/cmd"
	"github.com/conduitci/conduit/pkg/log"
	"github.com/conduitci/conduit/pkg/models"
	"github.com/conduitci/conduit/pkg/workflow"
)

// RunCommand executes a workflow file locally for a synthetic event built
// from flags. The exit status reflects the run outcome.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Aliases:   []string{"r"},
		Usage:     "Execute a workflow file for an event built from flags",
		ArgsUsage: "<workflow-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "event",
				Usage:   "Event type (push, pull_request, schedule, ...)",
				Value:   models.EventTypePush,
				Sources: cli.EnvVars("CONDUIT_EVENT"),
			},
			&cli.StringFlag{
				Name:    "branch",
				Usage:   "Branch the event refers to",
				Sources: cli.EnvVars("CONDUIT_BRANCH"),
			},
			&cli.StringFlag{
				Name:    "repository",
				Usage:   "Repository the event refers to (org/repo)",
				Sources: cli.EnvVars("CONDUIT_REPOSITORY"),
			},
			&cli.StringFlag{
				Name:  "payload",
				Usage: "Additional event payload as a JSON object",
				Value: "{}",
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Optional database URL; run records are saved when set",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "plugins-path",
				Usage:   "Path to the directory containing action plugins",
				Sources: cli.EnvVars("PLUGINS_PATH"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("conduit")

			path := command.Args().First()
			if path == "" {
				return cli.Exit("workflow file argument is required", 2)
			}

			loaded, err := workflow.Load(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("invalid workflow: %v", err), 2)
			}

			var payload map[string]any
			if err := json.Unmarshal([]byte(command.String("payload")), &payload); err != nil {
				return cli.Exit(fmt.Sprintf("invalid payload JSON: %v", err), 2)
			}

			event := models.Event{
				ID:         uuid.New().String(),
				Type:       command.String("event"),
				Branch:     command.String("branch"),
				Repository: command.String("repository"),
				Payload:    payload,
				ReceivedAt: time.Now().UTC(),
			}

			registry, err := cmd.NewRegistry(logger, command.String("plugins-path"))
			if err != nil {
				return err
			}

			opts := []workflow.RunnerOption{}

			if databaseURL := command.String("database-url"); databaseURL != "" {
				store, err := cmd.NewPersistence(ctx, logger, databaseURL)
				if err != nil {
					return err
				}

				defer func() {
					if err := store.Close(ctx); err != nil {
						logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
					}
				}()

				opts = append(opts, workflow.WithPersistence(store))
			}

			runner := workflow.NewRunner(registry, logger, opts...)

			run, err := runner.Execute(ctx, loaded, event)
			if run == nil {
				fmt.Fprintf(command.Writer, "workflow %q not triggered by %s event\n", loaded.Name, event.Type)

				return nil
			}

			switch run.Status {
			case models.RunStatusSucceeded:
				fmt.Fprintf(command.Writer, "run %s succeeded in %s\n", run.ID, run.Duration())

				return nil
			case models.RunStatusSkipped:
				fmt.Fprintf(command.Writer, "run %s skipped: guard rejected event\n", run.ID)

				return nil
			default:
				return cli.Exit(fmt.Sprintf("run %s failed: %v", run.ID, err), 1)
			}
		},
	}
}
