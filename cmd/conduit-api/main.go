// Package main provides the Conduit API server.
package main

import (
	"context"
	"log/slog"
	"os"

	cli "github.com/urfave/cli/v3"

	cmdutil "github.com/conduitci/conduit/pkg/cmd"
	"github.com/conduitci/conduit/pkg/log"
	"github.com/conduitci/conduit/pkg/models"
	"github.com/conduitci/conduit/pkg/sources/webhook"
)

const (
	defaultPort        = 9090
	defaultWebhookPort = 8085
)

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "conduit-api",
		Usage:                 "Create and manage workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, memory)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.IntFlag{
				Name:    "webhook-port",
				Usage:   "Port for the webhook event receiver (0 disables it)",
				Value:   defaultWebhookPort,
				Sources: cli.EnvVars("WEBHOOK_PORT"),
			},
			&cli.StringFlag{
				Name:    "webhook-secret",
				Usage:   "Shared token required on incoming webhook requests",
				Sources: cli.EnvVars("WEBHOOK_SECRET"),
			},
			&cli.StringFlag{
				Name:     "plugins-path",
				Usage:    "Path to the directory containing action and source plugins",
				Required: false,
				Sources:  cli.EnvVars("PLUGINS_PATH"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log output format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.String("log-format") == "json" {
				log.SetupJSON(command.String("log-level"))
			} else {
				log.Setup(command.String("log-level"))
			}

			logger.InfoContext(ctx, "Initializing Conduit API")

			registry, err := cmdutil.NewRegistry(logger, command.String("plugins-path"))
			if err != nil {
				return err
			}

			store, err := cmdutil.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmdutil.NewEventBus(command.String("event-bus"), "conduit-api", logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			api := NewAPI(logger, store, registry, eventBus)

			if port := command.Int("webhook-port"); port > 0 {
				go startWebhookSource(ctx, logger, api, int(port), command.String("webhook-secret"))
			}

			return api.Start(int(command.Int("port")))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

// startWebhookSource runs the webhook receiver and dispatches every
// accepted event to matching workflows.
func startWebhookSource(ctx context.Context, logger *slog.Logger, api *API, port int, secret string) {
	source := webhook.NewSource(map[string]any{
		"port":   port,
		"secret": secret,
	}, logger)

	callback := func(ctx context.Context, event models.Event) error {
		_, err := api.Dispatcher().Dispatch(ctx, event)

		return err
	}

	if err := source.Start(ctx, callback); err != nil {
		logger.ErrorContext(ctx, "Webhook source stopped", "error", err)
	}
}
