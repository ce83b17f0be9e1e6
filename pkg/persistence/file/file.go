// Package file provides file-based schema persistence: one JSON document
// per stored schema under <root>/schemas. Suited to local development and
// single-process deployments.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/botblocks/botblocks/pkg/models"
	"github.com/botblocks/botblocks/pkg/persistence"
)

// Persistence implements persistence.Persistence on the file system.
type Persistence struct {
	root string
}

func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

func (p *Persistence) schemasDir() string {
	return filepath.Join(p.root, "schemas")
}

// schemaPath maps an id to its document path. Ids with path separators are
// rejected so a crafted id cannot escape the schemas directory.
func (p *Persistence) schemaPath(id string) (string, error) {
	if id == "" || id != filepath.Base(id) {
		return "", fmt.Errorf("%w: %q", persistence.ErrInvalidSchemaID, id)
	}

	return filepath.Join(p.schemasDir(), id+".json"), nil
}

func (p *Persistence) Schemas(ctx context.Context) ([]*models.StoredSchema, error) {
	dir := os.DirFS(p.schemasDir())

	files, err := fs.Glob(dir, "*.json")
	if err != nil {
		return nil, persistence.NewSchemaError("List", "", err)
	}

	schemas := make([]*models.StoredSchema, 0, len(files))

	for _, file := range files {
		id := strings.TrimSuffix(file, ".json")

		schema, err := p.SchemaByID(ctx, id)
		if err != nil {
			return nil, err
		}

		schemas = append(schemas, schema)
	}

	sort.Slice(schemas, func(i, j int) bool {
		return schemas[i].CreatedAt.Before(schemas[j].CreatedAt)
	})

	return schemas, nil
}

func (p *Persistence) SchemaByID(_ context.Context, id string) (*models.StoredSchema, error) {
	path, err := p.schemaPath(id)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, persistence.NewSchemaError("GetByID", id, persistence.ErrSchemaNotFound)
	} else if err != nil {
		return nil, persistence.NewSchemaError("GetByID", id, err)
	}

	var schema models.StoredSchema

	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, persistence.NewSchemaError("GetByID", id, err)
	}

	return &schema, nil
}

func (p *Persistence) SaveSchema(_ context.Context, schema *models.StoredSchema) error {
	path, err := p.schemaPath(schema.ID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(p.schemasDir(), 0o755); err != nil {
		return persistence.NewSchemaError("Save", schema.ID, err)
	}

	raw, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return persistence.NewSchemaError("Save", schema.ID, err)
	}

	// Write through a temp file and rename so readers never observe a
	// half-written document.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return persistence.NewSchemaError("Save", schema.ID, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return persistence.NewSchemaError("Save", schema.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteSchema(_ context.Context, id string) error {
	path, err := p.schemaPath(id)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return persistence.NewSchemaError("Delete", id, persistence.ErrSchemaNotFound)
	} else if err != nil {
		return persistence.NewSchemaError("Delete", id, err)
	}

	return nil
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. Nothing to release for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}
