package web

import (
	"encoding/json"

	"github.com/botblocks/botblocks/pkg/models"
)

// CreateSchemaRequest is the POST /schemas body.
type CreateSchemaRequest struct {
	Name        string           `json:"name"        validate:"required,min=3"`
	Description string           `json:"description"`
	Graph       models.BotSchema `json:"graph"`
}

// ImportSchemaRequest is the POST /schemas/import body. Document is the raw
// editor export; it is shape-checked before decoding.
type ImportSchemaRequest struct {
	Name        string          `json:"name"        validate:"required,min=3"`
	Description string          `json:"description"`
	Document    json.RawMessage `json:"document"    validate:"required"`
}

// UpdateSchemaRequest is the PATCH /schemas/:id body.
type UpdateSchemaRequest struct {
	Name        string            `json:"name"        validate:"omitempty,min=3"`
	Description *string           `json:"description"`
	Graph       *models.BotSchema `json:"graph"`
}

// ValidateGraphRequest is the POST /validate body for unsaved graphs.
type ValidateGraphRequest struct {
	Graph models.BotSchema `json:"graph"`
}

// SimulateRequest is the POST /schemas/:id/simulate body.
type SimulateRequest struct {
	Event models.InboundEvent `json:"event" validate:"required"`
}
