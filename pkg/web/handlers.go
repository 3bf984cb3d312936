package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/conduitci/conduit/pkg/registry"
	"github.com/conduitci/conduit/pkg/workflow"
)

type APIHandlers struct {
	repository *workflow.Repository
	dispatcher *workflow.Dispatcher
	validator  *validator.Validate
	registry   *registry.Registry
}

func NewAPIHandlers(
	repository *workflow.Repository,
	dispatcher *workflow.Dispatcher,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		repository: repository,
		dispatcher: dispatcher,
		validator:  validator,
		registry:   registry,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.repository.FetchAll(c.Context())
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":   workflows,
		"total_count": len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	found, err := h.repository.FetchByID(c.Context(), id)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(found)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.repository.Create(c.Context(), req.ToWorkflow())
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.repository.FetchByID(c.Context(), id)
	if err != nil {
		return handleError(c, err)
	}

	req.ApplyTo(existing)

	updated, err := h.repository.Update(c.Context(), id, existing)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.repository.Delete(c.Context(), id); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetWorkflowRuns(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if _, err := h.repository.FetchByID(c.Context(), id); err != nil {
		return handleError(c, err)
	}

	runs, err := h.repository.FetchRuns(c.Context(), id)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(fiber.Map{
		"runs":        runs,
		"total_count": len(runs),
	})
}

func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	run, err := h.repository.FetchRunByID(c.Context(), id)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(run)
}

// InjectEvent matches the posted event against stored workflows and requests
// a run for each match.
func (h *APIHandlers) InjectEvent(c fiber.Ctx) error {
	var req InjectEventRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	event := req.ToEvent()

	requested, err := h.dispatcher.Dispatch(c.Context(), event)
	if err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"event_id":  event.ID,
		"requested": requested,
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.repository.HealthCheck(c.Context())

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
			"actions":    h.registry.AvailableActions(),
		},
		"timestamp": time.Now().UTC(),
	})
}
