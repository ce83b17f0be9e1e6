package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/botblocks/botblocks/pkg/models"
)

func TestTypeCategory(t *testing.T) {
	tests := []struct {
		nodeType string
		want     models.Category
	}{
		{"trigger-command", models.CategoryTriggers},
		{"trigger-message", models.CategoryTriggers},
		{"start", models.CategoryTriggers},
		{"condition-text", models.CategoryConditions},
		{"action-send-message", models.CategoryActions},
		{"data-variable", models.CategoryData},
		{"integration-http", models.CategoryIntegrations},
		{"widget-custom", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.nodeType, func(t *testing.T) {
			assert.Equal(t, tt.want, models.TypeCategory(tt.nodeType))
		})
	}
}

func TestEffectiveCategoryPrefersExplicitField(t *testing.T) {
	node := models.Node{ID: "n1", Type: "action-send-message", Category: models.CategoryData}
	assert.Equal(t, models.CategoryData, node.EffectiveCategory())

	node.Category = ""
	assert.Equal(t, models.CategoryActions, node.EffectiveCategory())
}

func TestEdgesBySourceKeepsDeclarationOrder(t *testing.T) {
	schema := models.BotSchema{
		Edges: []models.Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "a", Target: "c"},
			{ID: "e3", Source: "b", Target: "c"},
		},
	}

	index := schema.EdgesBySource()
	assert.Len(t, index["a"], 2)
	assert.Equal(t, "e1", index["a"][0].ID)
	assert.Equal(t, "e2", index["a"][1].ID)
	assert.Len(t, index["b"], 1)
}

func TestTriggerNodesDeclarationOrder(t *testing.T) {
	schema := models.BotSchema{
		Nodes: []models.Node{
			{ID: "a1", Type: models.NodeTypeActionSend},
			{ID: "t1", Type: models.NodeTypeTriggerMessage},
			{ID: "t2", Type: models.NodeTypeTriggerCommand},
		},
	}

	triggers := schema.TriggerNodes()
	assert.Len(t, triggers, 2)
	assert.Equal(t, "t1", triggers[0].ID)
	assert.Equal(t, "t2", triggers[1].ID)
}

func TestDataString(t *testing.T) {
	node := models.Node{Data: map[string]any{"command": "/start", "count": 3}}

	assert.Equal(t, "/start", node.DataString("command"))
	assert.Empty(t, node.DataString("count"))
	assert.Empty(t, node.DataString("missing"))

	empty := models.Node{}
	assert.Empty(t, empty.DataString("command"))
}
