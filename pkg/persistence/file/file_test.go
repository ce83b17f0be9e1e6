package file_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botblocks/botblocks/pkg/models"
	"github.com/botblocks/botblocks/pkg/persistence"
	"github.com/botblocks/botblocks/pkg/persistence/file"
)

func storedSchema(id, name string) *models.StoredSchema {
	now := time.Now().UTC().Truncate(time.Second)

	return &models.StoredSchema{
		ID:   id,
		Name: name,
		Graph: models.BotSchema{
			Nodes: []models.Node{
				{ID: "t1", Type: models.NodeTypeTriggerCommand, Data: map[string]any{"command": "/start"}},
				{ID: "a1", Type: models.NodeTypeActionSend, Data: map[string]any{"message": "hi"}},
			},
			Edges: []models.Edge{{ID: "e1", Source: "t1", Target: "a1"}},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestFilePersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	schema := storedSchema("welcome-bot", "Welcome Bot")
	require.NoError(t, p.SaveSchema(ctx, schema))

	loaded, err := p.SchemaByID(ctx, "welcome-bot")
	require.NoError(t, err)
	assert.Equal(t, schema.Name, loaded.Name)
	assert.Len(t, loaded.Graph.Nodes, 2)
	assert.Equal(t, "/start", loaded.Graph.Nodes[0].DataString("command"))
}

func TestFilePersistenceList(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	require.NoError(t, p.SaveSchema(ctx, storedSchema("one", "One")))
	require.NoError(t, p.SaveSchema(ctx, storedSchema("two", "Two")))

	schemas, err := p.Schemas(ctx)
	require.NoError(t, err)
	assert.Len(t, schemas, 2)
}

func TestFilePersistenceMissingSchema(t *testing.T) {
	p := file.NewPersistence(t.TempDir())

	_, err := p.SchemaByID(context.Background(), "nope")
	assert.True(t, persistence.IsSchemaNotFound(err))
}

func TestFilePersistenceDelete(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	require.NoError(t, p.SaveSchema(ctx, storedSchema("gone", "Gone")))
	require.NoError(t, p.DeleteSchema(ctx, "gone"))

	_, err := p.SchemaByID(ctx, "gone")
	assert.True(t, persistence.IsSchemaNotFound(err))

	err = p.DeleteSchema(ctx, "gone")
	assert.True(t, persistence.IsSchemaNotFound(err))
}

func TestFilePersistenceRejectsPathEscapes(t *testing.T) {
	p := file.NewPersistence(t.TempDir())

	_, err := p.SchemaByID(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, persistence.ErrInvalidSchemaID)
}
