package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botblocks/botblocks/pkg/models"
)

func TestFixWritePreservesVariablesAndSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")

	broken := models.BotSchema{
		Nodes: []models.Node{{ID: "n1"}},
		Variables: map[string]models.Variable{
			"name": {Type: "string", DefaultValue: "World"},
		},
		Settings: &models.Settings{ParseMode: "Markdown"},
	}

	raw, err := json.Marshal(broken)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	err = FixCommand().Run(context.Background(), []string{"fix", "--write", path})
	require.NoError(t, err)

	rewritten, err := os.ReadFile(path)
	require.NoError(t, err)

	var repaired models.BotSchema

	require.NoError(t, json.Unmarshal(rewritten, &repaired))
	assert.Len(t, repaired.Nodes, 2)
	assert.Len(t, repaired.Edges, 1)
	assert.Equal(t, "World", repaired.Variables["name"].DefaultValue)

	require.NotNil(t, repaired.Settings)
	assert.Equal(t, "Markdown", repaired.Settings.ParseMode)
}

func TestFixWithoutWriteLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")

	raw, err := json.Marshal(models.BotSchema{Nodes: []models.Node{{ID: "n1"}}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	err = FixCommand().Run(context.Background(), []string{"fix", path})
	require.NoError(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, raw, after)
}
