package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/conduitci/conduit/pkg/eventbus"
	"github.com/conduitci/conduit/pkg/persistence"
	"github.com/conduitci/conduit/pkg/registry"
	"github.com/conduitci/conduit/pkg/web"
	"github.com/conduitci/conduit/pkg/workflow"
)

type API struct {
	logger     *slog.Logger
	store      persistence.Persistence
	registry   *registry.Registry
	eventBus   eventbus.EventBus
	repository *workflow.Repository
	dispatcher *workflow.Dispatcher
	validate   *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	store persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	repository := workflow.NewRepository(store)

	return &API{
		logger:     logger,
		store:      store,
		registry:   registry,
		eventBus:   eventBus,
		repository: repository,
		dispatcher: workflow.NewDispatcher(repository, eventBus, logger),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Dispatcher exposes event fan-out for the webhook source callback.
func (a *API) Dispatcher() *workflow.Dispatcher {
	return a.dispatcher
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.repository, a.dispatcher, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Conduit API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Get("/:id/runs", handlers.GetWorkflowRuns)

	app.Get("/runs/:id", handlers.GetRun)
	app.Post("/events", handlers.InjectEvent)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
