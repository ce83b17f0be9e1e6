// Package web provides HTTP handlers and REST API endpoints for bot schema management.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/botblocks/botblocks/pkg/persistence"
	"github.com/botblocks/botblocks/pkg/registry"
	"github.com/botblocks/botblocks/pkg/services"
)

type APIHandlers struct {
	schemaService *services.Schema
	validator     *validator.Validate
	registry      *registry.Registry
}

func NewAPIHandlers(
	schemaService *services.Schema,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		schemaService: schemaService,
		validator:     validator,
		registry:      registry,
	}
}

func (h *APIHandlers) GetSchemas(c fiber.Ctx) error {
	schemas, err := h.schemaService.List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"schemas": schemas,
		"count":   len(schemas),
	})
}

func (h *APIHandlers) GetSchema(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Schema ID is required")
	}

	schema, err := h.schemaService.Get(c.Context(), id)
	if err != nil {
		if persistence.IsSchemaNotFound(err) {
			return notFound(c, "Schema not found")
		}

		return internalError(c, err)
	}

	return c.JSON(schema)
}

func (h *APIHandlers) CreateSchema(c fiber.Ctx) error {
	var req CreateSchemaRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.schemaService.Create(c.Context(), services.CreateSchemaRequest{
		Name:        req.Name,
		Description: req.Description,
		Graph:       req.Graph,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) ImportSchema(c fiber.Ctx) error {
	var req ImportSchemaRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.schemaService.Import(c.Context(), req.Name, req.Description, req.Document)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateSchema(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Schema ID is required")
	}

	var req UpdateSchemaRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.schemaService.Update(c.Context(), id, services.UpdateSchemaRequest{
		Name:        req.Name,
		Description: req.Description,
		Graph:       req.Graph,
	})
	if err != nil {
		if persistence.IsSchemaNotFound(err) {
			return notFound(c, "Schema not found")
		}

		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteSchema(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Schema ID is required")
	}

	err := h.schemaService.Delete(c.Context(), id)
	if err != nil {
		if persistence.IsSchemaNotFound(err) {
			return notFound(c, "Schema not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ValidateSchema(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Schema ID is required")
	}

	report, err := h.schemaService.Validate(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(report)
}

// ValidateGraph validates a graph that has not been stored yet. The editor
// uses it for live feedback while a schema is being drawn.
func (h *APIHandlers) ValidateGraph(c fiber.Ctx) error {
	var req ValidateGraphRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	return c.JSON(h.schemaService.ValidateGraph(&req.Graph))
}

func (h *APIHandlers) FixSchema(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Schema ID is required")
	}

	result, err := h.schemaService.Fix(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) SimulateSchema(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Schema ID is required")
	}

	var req SimulateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	run, err := h.schemaService.Simulate(c.Context(), id, req.Event)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(run)
}

func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"node_types": h.registry.Types(),
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.schemaService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "BotBlocks API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "BotBlocks API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
