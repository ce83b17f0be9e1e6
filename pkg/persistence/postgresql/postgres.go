// Package postgresql provides PostgreSQL schema persistence for shared,
// multi-process deployments.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/botblocks/botblocks/pkg/models"
	"github.com/botblocks/botblocks/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db         *sql.DB
	logger     *slog.Logger
	schemaRepo *SchemaRepository
}

// NewPersistence connects, runs pending migrations and returns the layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:         database,
		logger:     logger,
		schemaRepo: NewSchemaRepository(database, logger),
	}, nil
}

func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Schemas(ctx context.Context) ([]*models.StoredSchema, error) {
	return p.schemaRepo.GetAll(ctx)
}

func (p *Persistence) SchemaByID(ctx context.Context, id string) (*models.StoredSchema, error) {
	return p.schemaRepo.GetByID(ctx, id)
}

func (p *Persistence) SaveSchema(ctx context.Context, schema *models.StoredSchema) error {
	return p.schemaRepo.Save(ctx, schema)
}

// DeleteSchema soft deletes a schema by setting its deleted_at timestamp.
func (p *Persistence) DeleteSchema(ctx context.Context, id string) error {
	return p.schemaRepo.Delete(ctx, id)
}
