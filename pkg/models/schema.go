// Package models defines the core domain models for node-graph bot schemas.
package models

import (
	"strings"
	"time"
)

// Category represents the category of a node. The category determines which
// connection rules apply and which handler family executes the node.
type Category string

const (
	CategoryTriggers     Category = "triggers"
	CategoryConditions   Category = "conditions"
	CategoryActions      Category = "actions"
	CategoryData         Category = "data"
	CategoryIntegrations Category = "integrations"
)

// ValidCategories lists every category a node may declare, in canonical order.
var ValidCategories = []Category{
	CategoryTriggers,
	CategoryConditions,
	CategoryActions,
	CategoryData,
	CategoryIntegrations,
}

// Built-in node types. The prefix before the first hyphen is the category tag.
const (
	NodeTypeStart           = "start"
	NodeTypeTriggerCommand  = "trigger-command"
	NodeTypeTriggerMessage  = "trigger-message"
	NodeTypeActionSend      = "action-send-message"
	NodeTypeConditionText   = "condition-text"
	NodeTypeDataVariable    = "data-variable"
	NodeTypeIntegrationHTTP = "integration-http"
)

// Position is the editor canvas position of a node. Display-only: it never
// affects execution, but the auto-fixer uses it to pick nearest neighbors.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a single typed unit of bot behavior on the canvas.
type Node struct {
	ID       string         `json:"id"                 validate:"required"`
	Type     string         `json:"type"               validate:"required"`
	Category Category       `json:"category,omitempty"`
	Position Position       `json:"position"`
	Data     map[string]any `json:"data,omitempty"`
}

// EffectiveCategory resolves the node's category, preferring the explicit
// field and falling back to the type tag prefix.
func (n *Node) EffectiveCategory() Category {
	if n.Category != "" {
		return n.Category
	}

	return TypeCategory(n.Type)
}

func (n *Node) IsTrigger() bool {
	return strings.HasPrefix(n.Type, "trigger")
}

func (n *Node) IsCondition() bool {
	return strings.HasPrefix(n.Type, "condition")
}

func (n *Node) IsAction() bool {
	return strings.HasPrefix(n.Type, "action")
}

// DataString returns a string field from the node's config map.
func (n *Node) DataString(key string) string {
	if n.Data == nil {
		return ""
	}

	s, _ := n.Data[key].(string)

	return s
}

// TypeCategory maps a type tag to its category by the prefix before the
// first hyphen. Unknown prefixes yield an empty category.
func TypeCategory(nodeType string) Category {
	prefix, _, _ := strings.Cut(nodeType, "-")

	switch prefix {
	case "trigger", "start":
		return CategoryTriggers
	case "condition":
		return CategoryConditions
	case "action":
		return CategoryActions
	case "data":
		return CategoryData
	case "integration":
		return CategoryIntegrations
	default:
		return ""
	}
}

// Edge is a directed connection between two nodes. SourceHandle is only
// meaningful on branching sources: a condition node's "true"/"false" outputs.
type Edge struct {
	ID           string `json:"id"                     validate:"required"`
	Source       string `json:"source"                 validate:"required"`
	Target       string `json:"target"                 validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// Variable is a named, typed default value declared at the schema level.
type Variable struct {
	Type         string `json:"type"`
	DefaultValue any    `json:"defaultValue"`
}

// Settings holds schema-level execution options.
type Settings struct {
	ParseMode string `json:"parseMode,omitempty"`
}

// BotSchema is the node+edge definition of one bot's behavior, as produced
// by the visual editor or an importer.
type BotSchema struct {
	Nodes     []Node              `json:"nodes"`
	Edges     []Edge              `json:"edges"`
	Variables map[string]Variable `json:"variables,omitempty"`
	Settings  *Settings           `json:"settings,omitempty"`
}

// NodeByID builds an id -> node index. The index is derived per call so the
// schema itself stays trivially serializable and shareable between callers.
func (s *BotSchema) NodeByID() map[string]*Node {
	index := make(map[string]*Node, len(s.Nodes))
	for i := range s.Nodes {
		index[s.Nodes[i].ID] = &s.Nodes[i]
	}

	return index
}

// EdgesBySource builds a source-id -> outgoing edges index, preserving
// declaration order within each source.
func (s *BotSchema) EdgesBySource() map[string][]Edge {
	index := make(map[string][]Edge, len(s.Nodes))
	for _, edge := range s.Edges {
		index[edge.Source] = append(index[edge.Source], edge)
	}

	return index
}

// TriggerNodes returns the schema's trigger nodes in declaration order.
func (s *BotSchema) TriggerNodes() []*Node {
	var triggers []*Node

	for i := range s.Nodes {
		if s.Nodes[i].EffectiveCategory() == CategoryTriggers {
			triggers = append(triggers, &s.Nodes[i])
		}
	}

	return triggers
}

// StoredSchema is a named bot schema as kept by the persistence layer.
type StoredSchema struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"        validate:"required,min=3"`
	Description string    `json:"description"`
	Graph       BotSchema `json:"graph"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
