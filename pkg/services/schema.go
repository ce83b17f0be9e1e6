package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/botblocks/botblocks/pkg/autofix"
	"github.com/botblocks/botblocks/pkg/engine"
	"github.com/botblocks/botblocks/pkg/eventbus"
	"github.com/botblocks/botblocks/pkg/events"
	"github.com/botblocks/botblocks/pkg/models"
	"github.com/botblocks/botblocks/pkg/persistence"
	"github.com/botblocks/botblocks/pkg/registry"
	"github.com/botblocks/botblocks/pkg/state"
	"github.com/botblocks/botblocks/pkg/validation"
)

// ErrSchemaNotFound is returned when a stored schema is not found.
var ErrSchemaNotFound = persistence.ErrSchemaNotFound

// Schema is the schema service: storage plus validation, repair and
// simulation over stored graphs.
type Schema struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	validator   *validation.Validator
	fixer       *autofix.Fixer
	publisher   eventbus.EventPublisher
	sessions    state.Store
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewSchema creates a new schema service. The publisher may be nil when no
// event bus is wired; a nil session store makes every simulation run against
// throwaway in-memory state.
func NewSchema(p persistence.Persistence, reg *registry.Registry, publisher eventbus.EventPublisher, sessions state.Store, logger *slog.Logger) *Schema {
	return &Schema{
		persistence: p,
		registry:    reg,
		validator:   validation.New(),
		fixer:       autofix.New(reg, logger),
		publisher:   publisher,
		sessions:    sessions,
		validate:    validator.New(),
		logger:      logger.With("module", "schema-service"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Schema) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// CreateSchemaRequest carries a new schema's fields.
type CreateSchemaRequest struct {
	Name        string           `json:"name"        validate:"required,min=3"`
	Description string           `json:"description"`
	Graph       models.BotSchema `json:"graph"`
}

func (s *Schema) Create(ctx context.Context, req CreateSchemaRequest) (*models.StoredSchema, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError("Create", "INVALID_SCHEMA", err.Error(), ErrSchemaNameRequired)
	}

	now := time.Now().UTC()
	schema := &models.StoredSchema{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Graph:       req.Graph,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.persistence.SaveSchema(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to save schema: %w", err)
	}

	s.logger.Info("Schema created", "schema_id", schema.ID, "name", schema.Name)

	return schema, nil
}

// Import creates a schema from a raw JSON graph document. The document is
// shape-checked before decoding; per-element defects stay repairable and
// are left to Validate and Fix.
func (s *Schema) Import(ctx context.Context, name, description string, document []byte) (*models.StoredSchema, error) {
	if err := validation.ValidateDocument(document); err != nil {
		return nil, NewValidationError("Import", "INVALID_DOCUMENT", err.Error(), ErrDocumentRejected)
	}

	var graph models.BotSchema

	if err := json.Unmarshal(document, &graph); err != nil {
		return nil, NewValidationError("Import", "INVALID_DOCUMENT", err.Error(), ErrDocumentRejected)
	}

	return s.Create(ctx, CreateSchemaRequest{Name: name, Description: description, Graph: graph})
}

func (s *Schema) List(ctx context.Context) ([]*models.StoredSchema, error) {
	schemas, err := s.persistence.Schemas(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}

	return schemas, nil
}

func (s *Schema) Get(ctx context.Context, id string) (*models.StoredSchema, error) {
	schema, err := s.persistence.SchemaByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get schema %s: %w", id, err)
	}

	return schema, nil
}

// UpdateSchemaRequest carries the mutable schema fields.
type UpdateSchemaRequest struct {
	Name        string            `json:"name"        validate:"omitempty,min=3"`
	Description *string           `json:"description"`
	Graph       *models.BotSchema `json:"graph"`
}

func (s *Schema) Update(ctx context.Context, id string, req UpdateSchemaRequest) (*models.StoredSchema, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, NewValidationError("Update", "INVALID_SCHEMA", err.Error(), ErrSchemaNameRequired)
	}

	schema, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		schema.Name = req.Name
	}

	if req.Description != nil {
		schema.Description = *req.Description
	}

	if req.Graph != nil {
		schema.Graph = *req.Graph
	}

	schema.UpdatedAt = time.Now().UTC()

	if err := s.persistence.SaveSchema(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to save schema %s: %w", id, err)
	}

	return schema, nil
}

func (s *Schema) Delete(ctx context.Context, id string) error {
	if err := s.persistence.DeleteSchema(ctx, id); err != nil {
		return fmt.Errorf("failed to delete schema %s: %w", id, err)
	}

	s.logger.Info("Schema deleted", "schema_id", id)

	return nil
}

// Validate runs the full validator against a stored schema's graph.
func (s *Schema) Validate(ctx context.Context, id string) (validation.Result, error) {
	schema, err := s.Get(ctx, id)
	if err != nil {
		return validation.Result{}, err
	}

	return s.validator.Validate(&schema.Graph), nil
}

// ValidateGraph validates a graph that is not stored.
func (s *Schema) ValidateGraph(graph *models.BotSchema) validation.Result {
	return s.validator.Validate(graph)
}

// FixResult is a repair outcome: the repaired stored schema, the fix log
// and the validator's verdict on the repaired graph.
type FixResult struct {
	Schema     *models.StoredSchema `json:"schema"`
	FixLog     []string             `json:"fixLog"`
	Stats      autofix.Stats        `json:"stats"`
	Validation validation.Result    `json:"validation"`
}

// Fix repairs a stored schema in place and persists the result. A no-op
// repair (empty fix log) skips the save.
func (s *Schema) Fix(ctx context.Context, id string) (*FixResult, error) {
	schema, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fixed := s.fixer.ApplyAllFixes(schema.Graph.Nodes, schema.Graph.Edges)

	if len(fixed.FixLog) > 0 {
		schema.Graph.Nodes = fixed.Nodes
		schema.Graph.Edges = fixed.Edges
		schema.UpdatedAt = time.Now().UTC()

		if err := s.persistence.SaveSchema(ctx, schema); err != nil {
			return nil, fmt.Errorf("failed to save fixed schema %s: %w", id, err)
		}

		s.publishSchemaFixed(ctx, schema.ID, fixed.FixLog)
	}

	return &FixResult{
		Schema:     schema,
		FixLog:     fixed.FixLog,
		Stats:      autofix.GetStats(fixed.FixLog),
		Validation: s.validator.Validate(&schema.Graph),
	}, nil
}

// Simulate runs a stored schema against one inbound event in an isolated
// engine. Sessions live in the configured store, so repeated simulations for
// one user accumulate counters; without a store each run starts fresh. The
// graph must be free of hard validation errors.
func (s *Schema) Simulate(ctx context.Context, id string, event models.InboundEvent) (*models.ExecutionContext, error) {
	schema, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	report := s.validator.Validate(&schema.Graph)
	if !report.IsValid {
		return nil, NewValidationError("Simulate", "GRAPH_NOT_EXECUTABLE",
			fmt.Sprintf("graph has %d validation errors", report.Summary.ErrorCount), ErrGraphNotExecutable)
	}

	sessions := s.sessions
	if sessions == nil {
		sessions = state.NewMemoryStore()
	}

	eng, err := engine.New(engine.Config{
		Schema:    &schema.Graph,
		SchemaID:  schema.ID,
		Registry:  s.registry,
		Sessions:  sessions,
		Messenger: discardMessenger{},
		Publisher: s.publisher,
		Logger:    s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build engine for schema %s: %w", id, err)
	}

	run, err := eng.ExecuteWorkflow(ctx, event, "")
	if err != nil {
		return nil, NewValidationError("Simulate", "INVALID_EVENT", err.Error(), ErrInvalidRequest)
	}

	return run, nil
}

func (s *Schema) publishSchemaFixed(ctx context.Context, schemaID string, fixLog []string) {
	if s.publisher == nil {
		return
	}

	event := events.SchemaFixed{
		BaseEvent: events.NewBaseEvent(events.SchemaFixedEvent, schemaID),
		FixCount:  len(fixLog),
		FixLog:    fixLog,
	}

	if err := s.publisher.Publish(ctx, schemaID, event); err != nil {
		s.logger.Error("Event publish failed", "event_type", event.GetType(), "error", err)
	}
}

// discardMessenger swallows simulated deliveries; the run's effect list is
// the simulation's observable output.
type discardMessenger struct{}

func (discardMessenger) SendMessage(context.Context, models.SideEffect) error {
	return nil
}
