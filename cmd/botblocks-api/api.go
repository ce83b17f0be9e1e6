// Package main provides the BotBlocks API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/botblocks/botblocks/pkg/eventbus"
	"github.com/botblocks/botblocks/pkg/persistence"
	"github.com/botblocks/botblocks/pkg/registry"
	"github.com/botblocks/botblocks/pkg/services"
	"github.com/botblocks/botblocks/pkg/state"
	"github.com/botblocks/botblocks/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	sessions    state.Store
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	sessions state.Store,
) *API {
	return &API{
		persistence: persistence,
		logger:      logger,
		registry:    registry,
		eventBus:    eventBus,
		sessions:    sessions,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	schemaService := services.NewSchema(a.persistence, a.registry, a.eventBus, a.sessions, a.logger)

	handlers := web.NewAPIHandlers(schemaService, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("BotBlocks API")
	})

	s := app.Group("/schemas")
	s.Get("/", handlers.GetSchemas)
	s.Post("/", handlers.CreateSchema)
	s.Post("/import", handlers.ImportSchema)
	s.Get("/:id", handlers.GetSchema)
	s.Patch("/:id", handlers.UpdateSchema)
	s.Delete("/:id", handlers.DeleteSchema)
	s.Post("/:id/validate", handlers.ValidateSchema)
	s.Post("/:id/fix", handlers.FixSchema)
	s.Post("/:id/simulate", handlers.SimulateSchema)

	app.Post("/validate", handlers.ValidateGraph)
	app.Get("/node-types", handlers.GetNodeTypes)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
