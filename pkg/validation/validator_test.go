package validation_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botblocks/botblocks/pkg/models"
	"github.com/botblocks/botblocks/pkg/registry"
	"github.com/botblocks/botblocks/pkg/validation"
)

func node(id, nodeType string, data map[string]any) models.Node {
	return models.Node{ID: id, Type: nodeType, Data: data}
}

func edge(id, source, target string) models.Edge {
	return models.Edge{ID: id, Source: source, Target: target}
}

func issueTypes(issues []validation.Issue) []string {
	types := make([]string, 0, len(issues))
	for _, issue := range issues {
		types = append(types, issue.Type)
	}

	return types
}

func TestValidateNilSchema(t *testing.T) {
	result := validation.New().Validate(nil)

	assert.False(t, result.IsValid)
	assert.Contains(t, issueTypes(result.Errors), validation.CodeSchemaMissing)
}

func TestValidateEmptySchema(t *testing.T) {
	result := validation.New().Validate(&models.BotSchema{})

	assert.True(t, result.IsValid)
	assert.True(t, result.HasWarnings)
	assert.Contains(t, issueTypes(result.Warnings), validation.CodeEmptySchema)
}

func TestValidateHealthySchema(t *testing.T) {
	schema := &models.BotSchema{
		Nodes: []models.Node{
			node("t1", models.NodeTypeTriggerCommand, map[string]any{"command": "/start"}),
			node("a1", models.NodeTypeActionSend, map[string]any{"message": "hi"}),
		},
		Edges: []models.Edge{edge("e1", "t1", "a1")},
	}

	result := validation.New().Validate(schema)

	assert.True(t, result.IsValid)
	assert.False(t, result.HasWarnings)
	assert.Equal(t, 0, result.Summary.TotalIssues)
}

func TestValidateDuplicateNodeID(t *testing.T) {
	schema := &models.BotSchema{
		Nodes: []models.Node{
			node("n1", models.NodeTypeTriggerCommand, map[string]any{"command": "/start"}),
			node("n1", models.NodeTypeActionSend, map[string]any{"message": "hi"}),
		},
	}

	result := validation.New().Validate(schema)

	assert.False(t, result.IsValid)
	assert.Contains(t, issueTypes(result.Errors), validation.CodeDuplicateNodeID)
}

func TestValidateDanglingTargets(t *testing.T) {
	schema := &models.BotSchema{
		Nodes: []models.Node{
			node("t1", models.NodeTypeTriggerCommand, map[string]any{"command": "/start"}),
			node("a1", models.NodeTypeActionSend, map[string]any{"message": "hi"}),
		},
		Edges: []models.Edge{
			edge("e1", "t1", "ghost"),
			edge("e2", "a1", "ghost"),
		},
	}

	result := validation.New().Validate(schema)

	require.False(t, result.IsValid)

	var dangling []validation.Issue

	for _, issue := range result.Errors {
		if issue.Type == validation.CodeTargetNodeNotFound {
			dangling = append(dangling, issue)
		}
	}

	require.Len(t, dangling, 2)
	assert.Equal(t, "e1", dangling[0].ConnectionID)
	assert.Equal(t, "e2", dangling[1].ConnectionID)
}

func TestValidateActionIntoTriggerIsWarning(t *testing.T) {
	schema := &models.BotSchema{
		Nodes: []models.Node{
			node("t1", models.NodeTypeTriggerCommand, map[string]any{"command": "/start"}),
			node("a1", models.NodeTypeActionSend, map[string]any{"message": "hi"}),
		},
		Edges: []models.Edge{edge("e1", "a1", "t1")},
	}

	result := validation.New().Validate(schema)

	assert.True(t, result.IsValid)
	assert.Contains(t, issueTypes(result.Warnings), validation.CodeUnusualConnection)
	assert.NotContains(t, issueTypes(result.Errors), validation.CodeUnusualConnection)
}

func TestValidateCycle(t *testing.T) {
	schema := &models.BotSchema{
		Nodes: []models.Node{
			node("t1", models.NodeTypeTriggerCommand, map[string]any{"command": "/start"}),
			node("a1", models.NodeTypeActionSend, map[string]any{"message": "one"}),
			node("a2", models.NodeTypeActionSend, map[string]any{"message": "two"}),
		},
		Edges: []models.Edge{
			edge("e1", "t1", "a1"),
			edge("e2", "a1", "a2"),
			edge("e3", "a2", "a1"),
		},
	}

	result := validation.New().Validate(schema)

	require.False(t, result.IsValid)
	assert.Contains(t, issueTypes(result.Errors), validation.CodeCyclicDependency)
}

func TestValidateSelfLoopIsWarning(t *testing.T) {
	schema := &models.BotSchema{
		Nodes: []models.Node{
			node("t1", models.NodeTypeTriggerCommand, map[string]any{"command": "/start"}),
			node("a1", models.NodeTypeActionSend, map[string]any{"message": "hi"}),
		},
		Edges: []models.Edge{
			edge("e1", "t1", "a1"),
			edge("e2", "a1", "a1"),
		},
	}

	result := validation.New().Validate(schema)

	assert.Contains(t, issueTypes(result.Warnings), validation.CodeSelfConnection)
	// The self-loop is also a one-node cycle, so the schema stays invalid.
	assert.Contains(t, issueTypes(result.Errors), validation.CodeCyclicDependency)
}

func TestValidateUnreachableNode(t *testing.T) {
	schema := &models.BotSchema{
		Nodes: []models.Node{
			node("t1", models.NodeTypeTriggerCommand, map[string]any{"command": "/start"}),
			node("a1", models.NodeTypeActionSend, map[string]any{"message": "hi"}),
			node("a2", models.NodeTypeActionSend, map[string]any{"message": "stranded"}),
		},
		Edges: []models.Edge{edge("e1", "t1", "a1")},
	}

	result := validation.New().Validate(schema)

	assert.True(t, result.IsValid)

	var unreachable *validation.Issue

	for i := range result.Warnings {
		if result.Warnings[i].Type == validation.CodeUnreachableNode {
			unreachable = &result.Warnings[i]
		}
	}

	require.NotNil(t, unreachable)
	assert.Equal(t, "a2", unreachable.NodeID)
}

func TestValidateDuplicateConditionHandles(t *testing.T) {
	schema := &models.BotSchema{
		Nodes: []models.Node{
			node("t1", models.NodeTypeTriggerCommand, map[string]any{"command": "/start"}),
			node("c1", models.NodeTypeConditionText, map[string]any{"pattern": "yes"}),
			node("a1", models.NodeTypeActionSend, map[string]any{"message": "one"}),
			node("a2", models.NodeTypeActionSend, map[string]any{"message": "two"}),
		},
		Edges: []models.Edge{
			edge("e1", "t1", "c1"),
			{ID: "e2", Source: "c1", Target: "a1", SourceHandle: "true"},
			{ID: "e3", Source: "c1", Target: "a2", SourceHandle: "true"},
		},
	}

	result := validation.New().Validate(schema)

	assert.True(t, result.IsValid)
	assert.Contains(t, issueTypes(result.Warnings), validation.CodeConditionBranchConflict)
}

func TestValidateTooManyConditionBranches(t *testing.T) {
	schema := &models.BotSchema{
		Nodes: []models.Node{
			node("t1", models.NodeTypeTriggerCommand, map[string]any{"command": "/start"}),
			node("c1", models.NodeTypeConditionText, map[string]any{"pattern": "yes"}),
			node("a1", models.NodeTypeActionSend, map[string]any{"message": "one"}),
			node("a2", models.NodeTypeActionSend, map[string]any{"message": "two"}),
			node("a3", models.NodeTypeActionSend, map[string]any{"message": "three"}),
		},
		Edges: []models.Edge{
			edge("e1", "t1", "c1"),
			{ID: "e2", Source: "c1", Target: "a1", SourceHandle: "true"},
			{ID: "e3", Source: "c1", Target: "a2", SourceHandle: "false"},
			{ID: "e4", Source: "c1", Target: "a3", SourceHandle: "true"},
		},
	}

	result := validation.New().Validate(schema)

	assert.Contains(t, issueTypes(result.Warnings), validation.CodeConditionBranchConflict)
}

func TestValidateMissingConfig(t *testing.T) {
	schema := &models.BotSchema{
		Nodes: []models.Node{
			node("t1", models.NodeTypeTriggerCommand, map[string]any{}),
			node("a1", models.NodeTypeActionSend, map[string]any{}),
			node("d1", models.NodeTypeDataVariable, map[string]any{}),
			node("h1", models.NodeTypeIntegrationHTTP, map[string]any{}),
		},
	}

	result := validation.New().Validate(schema)

	errorTypes := issueTypes(result.Errors)
	assert.Contains(t, errorTypes, validation.CodeMissingCommand)
	assert.Contains(t, errorTypes, validation.CodeMissingVariableName)
	assert.Contains(t, errorTypes, validation.CodeMissingHTTPURL)

	// An empty message degrades the bot but does not block execution.
	assert.Contains(t, issueTypes(result.Warnings), validation.CodeEmptyMessage)
	assert.NotContains(t, errorTypes, validation.CodeEmptyMessage)
}

func TestValidateCategoryTypeMismatch(t *testing.T) {
	schema := &models.BotSchema{
		Nodes: []models.Node{
			{
				ID:       "n1",
				Type:     models.NodeTypeActionSend,
				Category: models.CategoryTriggers,
				Data:     map[string]any{"message": "hi"},
			},
		},
	}

	result := validation.New().Validate(schema)

	assert.False(t, result.IsValid)
	assert.Contains(t, issueTypes(result.Errors), validation.CodeCategoryTypeMismatch)
}

func TestValidatePurity(t *testing.T) {
	schema := &models.BotSchema{
		Nodes: []models.Node{
			node("t1", models.NodeTypeTriggerCommand, map[string]any{"command": "/start"}),
			node("a1", models.NodeTypeActionSend, nil),
		},
		Edges: []models.Edge{
			edge("e1", "t1", "a1"),
			edge("e2", "a1", "ghost"),
		},
	}

	validator := validation.New()

	first := validator.Validate(schema)
	second := validator.Validate(schema)

	assert.Equal(t, first, second)
	assert.Len(t, schema.Nodes, 2)
	assert.Len(t, schema.Edges, 2)
	assert.Nil(t, schema.Nodes[1].Data)
}

func TestQuickValidateSkipsGraphAnalysis(t *testing.T) {
	schema := &models.BotSchema{
		Nodes: []models.Node{
			node("a1", models.NodeTypeActionSend, map[string]any{"message": "one"}),
			node("a2", models.NodeTypeActionSend, map[string]any{"message": "two"}),
		},
		Edges: []models.Edge{
			edge("e1", "a1", "a2"),
			edge("e2", "a2", "a1"),
		},
	}

	result := validation.New().QuickValidate(schema)

	assert.NotContains(t, issueTypes(result.Errors), validation.CodeCyclicDependency)
	assert.NotContains(t, issueTypes(result.Warnings), validation.CodeNoTriggers)
}

func TestValidateNode(t *testing.T) {
	validator := validation.New()

	result := validator.ValidateNode(&models.Node{Type: models.NodeTypeActionSend})
	assert.False(t, result.IsValid)
	assert.Contains(t, issueTypes(result.Errors), validation.CodeMissingRequiredField)

	result = validator.ValidateNode(nil)
	assert.False(t, result.IsValid)
}

func TestValidateEdge(t *testing.T) {
	nodes := []models.Node{
		node("t1", models.NodeTypeTriggerCommand, map[string]any{"command": "/start"}),
	}

	result := validation.New().ValidateEdge(&models.Edge{ID: "e1", Source: "t1", Target: "ghost"}, nodes)

	assert.False(t, result.IsValid)
	assert.Contains(t, issueTypes(result.Errors), validation.CodeTargetNodeNotFound)
}

func TestStrictModeFlagsUnknownTypes(t *testing.T) {
	logger := slog.Default()
	schema := &models.BotSchema{
		Nodes: []models.Node{
			node("t1", models.NodeTypeTriggerCommand, map[string]any{"command": "/start"}),
			node("x1", "experiment-shiny", map[string]any{}),
		},
		Edges: []models.Edge{edge("e1", "t1", "x1")},
	}

	lenient := validation.New().Validate(schema)
	assert.NotContains(t, issueTypes(lenient.Errors), validation.CodeUnknownNodeType)

	strict := validation.NewStrict(registry.Builtin(logger)).Validate(schema)
	assert.Contains(t, issueTypes(strict.Errors), validation.CodeUnknownNodeType)
}

func TestValidateDocument(t *testing.T) {
	valid := []byte(`{
		"nodes": [{"id": "t1", "type": "trigger-command", "position": {"x": 0, "y": 0}, "data": {"command": "/start"}}],
		"edges": []
	}`)
	assert.NoError(t, validation.ValidateDocument(valid))

	invalid := []byte(`{"nodes": "not-an-array", "edges": []}`)
	err := validation.ValidateDocument(invalid)
	assert.ErrorIs(t, err, validation.ErrDocumentInvalid)
}
