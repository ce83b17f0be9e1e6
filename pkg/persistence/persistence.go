// Package persistence provides the storage abstraction for named bot
// schemas.
package persistence

import (
	"context"

	"github.com/botblocks/botblocks/pkg/models"
)

type Persistence interface {
	Schemas(ctx context.Context) ([]*models.StoredSchema, error)
	SchemaByID(ctx context.Context, id string) (*models.StoredSchema, error)
	SaveSchema(ctx context.Context, schema *models.StoredSchema) error
	DeleteSchema(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
