package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/botblocks/botblocks/pkg/models"
	"github.com/botblocks/botblocks/pkg/persistence"
)

// SchemaRepository handles stored-schema rows in PostgreSQL.
type SchemaRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSchemaRepository(db *sql.DB, logger *slog.Logger) *SchemaRepository {
	return &SchemaRepository{db: db, logger: logger}
}

func (r *SchemaRepository) GetAll(ctx context.Context) ([]*models.StoredSchema, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, graph, created_at, updated_at
		FROM bot_schemas
		WHERE deleted_at IS NULL
		ORDER BY created_at
	`)
	if err != nil {
		return nil, persistence.NewSchemaError("List", "", err)
	}
	defer rows.Close()

	var schemas []*models.StoredSchema

	for rows.Next() {
		schema, err := scanSchema(rows)
		if err != nil {
			return nil, persistence.NewSchemaError("List", "", err)
		}

		schemas = append(schemas, schema)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewSchemaError("List", "", err)
	}

	return schemas, nil
}

func (r *SchemaRepository) GetByID(ctx context.Context, id string) (*models.StoredSchema, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, graph, created_at, updated_at
		FROM bot_schemas
		WHERE id = $1 AND deleted_at IS NULL
	`, id)

	schema, err := scanSchema(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewSchemaError("GetByID", id, persistence.ErrSchemaNotFound)
	} else if err != nil {
		return nil, persistence.NewSchemaError("GetByID", id, err)
	}

	return schema, nil
}

func (r *SchemaRepository) Save(ctx context.Context, schema *models.StoredSchema) error {
	graph, err := json.Marshal(schema.Graph)
	if err != nil {
		return persistence.NewSchemaError("Save", schema.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO bot_schemas (id, name, description, graph, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			graph = EXCLUDED.graph,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
	`, schema.ID, schema.Name, schema.Description, graph, schema.CreatedAt, schema.UpdatedAt)
	if err != nil {
		return persistence.NewSchemaError("Save", schema.ID, err)
	}

	return nil
}

func (r *SchemaRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE bot_schemas SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return persistence.NewSchemaError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewSchemaError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewSchemaError("Delete", id, persistence.ErrSchemaNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchema(row rowScanner) (*models.StoredSchema, error) {
	var (
		schema models.StoredSchema
		graph  []byte
	)

	err := row.Scan(&schema.ID, &schema.Name, &schema.Description, &graph,
		&schema.CreatedAt, &schema.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(graph, &schema.Graph); err != nil {
		return nil, fmt.Errorf("decoding schema graph: %w", err)
	}

	return &schema, nil
}
