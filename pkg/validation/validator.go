// Package validation analyzes bot schemas for structural and logical
// defects. Validation is pure: it never mutates its input and the same
// schema always yields the same set of errors and warnings.
package validation

import (
	"fmt"
	"math"

	"github.com/botblocks/botblocks/pkg/models"
	"github.com/botblocks/botblocks/pkg/registry"
)

// connectionRules is the category adjacency table: for each source category,
// the target categories a connection may point at. Triggers are graph roots
// and are never a legal target. Violations are warnings, not errors, since
// unconventional wiring can be intentional.
var connectionRules = map[models.Category][]models.Category{
	models.CategoryTriggers:     {models.CategoryConditions, models.CategoryActions, models.CategoryData},
	models.CategoryConditions:   {models.CategoryActions, models.CategoryData, models.CategoryConditions},
	models.CategoryActions:      {models.CategoryConditions, models.CategoryActions, models.CategoryData},
	models.CategoryData:         {models.CategoryConditions, models.CategoryActions, models.CategoryData},
	models.CategoryIntegrations: {models.CategoryConditions, models.CategoryActions, models.CategoryData},
}

// Validator runs schema analysis. The zero value is not usable; construct
// with New. A registry is optional and only consulted in strict mode, where
// node types without a registered descriptor become errors instead of being
// tolerated as forward-compatible no-ops.
type Validator struct {
	registry *registry.Registry
	strict   bool
}

func New() *Validator {
	return &Validator{}
}

// NewStrict returns a validator that reports UNKNOWN_NODE_TYPE errors for
// type tags the registry has no descriptor for.
func NewStrict(reg *registry.Registry) *Validator {
	return &Validator{registry: reg, strict: true}
}

// run collects issues for one Validate call, keeping the Validator itself
// stateless and safe for concurrent use.
type run struct {
	errors   []Issue
	warnings []Issue
}

func (r *run) errorf(code, nodeID, connID, format string, args ...any) {
	r.errors = append(r.errors, Issue{
		Type:         code,
		Message:      fmt.Sprintf(format, args...),
		NodeID:       nodeID,
		ConnectionID: connID,
		Severity:     SeverityError,
	})
}

func (r *run) warnf(code, nodeID, connID, format string, args ...any) {
	r.warnings = append(r.warnings, Issue{
		Type:         code,
		Message:      fmt.Sprintf(format, args...),
		NodeID:       nodeID,
		ConnectionID: connID,
		Severity:     SeverityWarning,
	})
}

func (r *run) result() Result {
	return Result{
		IsValid:     len(r.errors) == 0,
		HasWarnings: len(r.warnings) > 0,
		Errors:      r.errors,
		Warnings:    r.warnings,
		Summary: Summary{
			ErrorCount:   len(r.errors),
			WarningCount: len(r.warnings),
			TotalIssues:  len(r.errors) + len(r.warnings),
		},
	}
}

// Validate runs the full check sequence: structure, per-node, per-edge,
// cycles, logical integrity, reachability. A structural failure
// short-circuits the remaining checks.
func (v *Validator) Validate(schema *models.BotSchema) Result {
	r := &run{}

	if schema == nil {
		r.errorf(CodeSchemaMissing, "", "", "no schema provided for validation")

		return r.result()
	}

	v.checkStructure(r, schema)

	if len(r.errors) > 0 {
		return r.result()
	}

	v.checkNodes(r, schema.Nodes)
	v.checkEdges(r, schema.Edges, schema.Nodes)
	v.checkCycles(r, schema.Nodes, schema.Edges)
	v.checkLogicalIntegrity(r, schema.Nodes, schema.Edges)
	v.checkReachability(r, schema.Nodes, schema.Edges)

	return r.result()
}

// QuickValidate runs only the cheap structural and per-element checks,
// skipping graph-wide analysis. Used by the editor for keystroke-rate
// feedback.
func (v *Validator) QuickValidate(schema *models.BotSchema) Result {
	r := &run{}

	if schema == nil {
		r.errorf(CodeSchemaMissing, "", "", "no schema provided for validation")

		return r.result()
	}

	v.checkNodes(r, schema.Nodes)
	v.checkEdges(r, schema.Edges, schema.Nodes)

	return r.result()
}

// ValidateNode checks a single node in isolation.
func (v *Validator) ValidateNode(node *models.Node) Result {
	r := &run{}

	if node == nil {
		r.errorf(CodeSchemaMissing, "", "", "no node provided for validation")

		return r.result()
	}

	v.checkNodes(r, []models.Node{*node})

	return r.result()
}

// ValidateEdge checks a single edge against a node set.
func (v *Validator) ValidateEdge(edge *models.Edge, nodes []models.Node) Result {
	r := &run{}

	if edge == nil {
		r.errorf(CodeSchemaMissing, "", "", "no connection provided for validation")

		return r.result()
	}

	v.checkEdges(r, []models.Edge{*edge}, nodes)

	return r.result()
}

func (v *Validator) checkStructure(r *run, schema *models.BotSchema) {
	// A decoded schema always carries slices, but importers can hand over
	// a half-built value. Nil slices with nonzero use are the Go shape of
	// the editor's "not an array" defect.
	if schema.Nodes == nil && len(schema.Edges) > 0 {
		r.errorf(CodeInvalidNodesArray, "", "", "nodes must be an array")
	}

	if len(schema.Nodes) == 0 {
		r.warnf(CodeEmptySchema, "", "", "schema contains no nodes")
	}
}

func (v *Validator) checkNodes(r *run, nodes []models.Node) {
	seen := make(map[string]bool, len(nodes))

	for i := range nodes {
		node := &nodes[i]
		label := nodeLabel(i, node.ID)

		if node.ID == "" {
			r.errorf(CodeMissingRequiredField, "", "", "%s: missing required field %q", label, "id")
		}

		if node.Type == "" {
			r.errorf(CodeMissingRequiredField, node.ID, "", "%s: missing required field %q", label, "type")
		}

		if node.ID != "" {
			if seen[node.ID] {
				r.errorf(CodeDuplicateNodeID, node.ID, "", "%s: duplicate node id %q", label, node.ID)
			} else {
				seen[node.ID] = true
			}
		}

		v.checkNodeCategory(r, node, label)
		v.checkNodePosition(r, node, label)
		v.checkNodeConfig(r, node, label)
	}
}

func (v *Validator) checkNodeCategory(r *run, node *models.Node, label string) {
	if node.Category != "" && !validCategory(node.Category) {
		r.errorf(CodeInvalidCategory, node.ID, "", "%s: invalid category %q", label, node.Category)

		return
	}

	// Category and type tag may be specified redundantly but must agree.
	if node.Category != "" && node.Type != "" {
		if byType := models.TypeCategory(node.Type); byType != "" && byType != node.Category {
			r.errorf(CodeCategoryTypeMismatch, node.ID, "",
				"%s: category %q conflicts with type %q", label, node.Category, node.Type)
		}
	}
}

func (v *Validator) checkNodePosition(r *run, node *models.Node, label string) {
	if math.IsNaN(node.Position.X) || math.IsInf(node.Position.X, 0) ||
		math.IsNaN(node.Position.Y) || math.IsInf(node.Position.Y, 0) {
		r.errorf(CodeInvalidPosition, node.ID, "", "%s: node position is not numeric", label)
	}
}

func (v *Validator) checkNodeConfig(r *run, node *models.Node, label string) {
	if v.strict && node.Type != "" && node.Type != models.NodeTypeStart {
		if _, ok := v.registry.Descriptor(node.Type); !ok {
			r.errorf(CodeUnknownNodeType, node.ID, "", "%s: unknown node type %q", label, node.Type)
		}
	}

	if node.Data == nil {
		r.warnf(CodeMissingNodeConfig, node.ID, "", "%s: node has no configuration", label)

		return
	}

	switch node.Type {
	case models.NodeTypeTriggerCommand:
		if node.DataString("command") == "" {
			r.errorf(CodeMissingCommand, node.ID, "", "%s: command trigger has no command", label)
		}
	case models.NodeTypeConditionText:
		if node.DataString("condition") == "" && node.DataString("conditionType") == "" {
			r.errorf(CodeMissingConditionType, node.ID, "", "%s: condition node has no condition type", label)
		}
	case models.NodeTypeActionSend:
		if node.DataString("message") == "" && node.DataString("text") == "" {
			r.warnf(CodeEmptyMessage, node.ID, "", "%s: send-message action has empty message text", label)
		}
	case models.NodeTypeDataVariable:
		if node.DataString("variableName") == "" {
			r.errorf(CodeMissingVariableName, node.ID, "", "%s: variable node has no variable name", label)
		}
	case models.NodeTypeIntegrationHTTP:
		if node.DataString("url") == "" {
			r.errorf(CodeMissingHTTPURL, node.ID, "", "%s: HTTP integration has no URL", label)
		}
	}
}

func (v *Validator) checkEdges(r *run, edges []models.Edge, nodes []models.Node) {
	nodeIndex := make(map[string]*models.Node, len(nodes))
	for i := range nodes {
		nodeIndex[nodes[i].ID] = &nodes[i]
	}

	seen := make(map[string]bool, len(edges))

	for i := range edges {
		edge := &edges[i]
		label := edgeLabel(i, edge.ID)

		if edge.ID == "" {
			r.errorf(CodeMissingConnectionField, "", "", "%s: missing required field %q", label, "id")
		}

		if edge.Source == "" {
			r.errorf(CodeMissingConnectionField, "", edge.ID, "%s: missing required field %q", label, "source")
		}

		if edge.Target == "" {
			r.errorf(CodeMissingConnectionField, "", edge.ID, "%s: missing required field %q", label, "target")
		}

		if edge.ID != "" {
			if seen[edge.ID] {
				r.errorf(CodeDuplicateConnectionID, "", edge.ID, "%s: duplicate connection id %q", label, edge.ID)
			} else {
				seen[edge.ID] = true
			}
		}

		source := nodeIndex[edge.Source]
		target := nodeIndex[edge.Target]

		if edge.Source != "" && source == nil {
			r.errorf(CodeSourceNodeNotFound, "", edge.ID, "%s: source node %q not found", label, edge.Source)
		}

		if edge.Target != "" && target == nil {
			r.errorf(CodeTargetNodeNotFound, "", edge.ID, "%s: target node %q not found", label, edge.Target)
		}

		if source != nil && target != nil {
			v.checkConnectionRule(r, source, target, edge, label)
		}

		if edge.Source != "" && edge.Source == edge.Target {
			r.warnf(CodeSelfConnection, "", edge.ID, "%s: node is connected to itself", label)
		}
	}
}

func (v *Validator) checkConnectionRule(r *run, source, target *models.Node, edge *models.Edge, label string) {
	sourceCategory := source.EffectiveCategory()
	targetCategory := target.EffectiveCategory()

	allowed, known := connectionRules[sourceCategory]
	if !known {
		return
	}

	for _, cat := range allowed {
		if cat == targetCategory {
			return
		}
	}

	r.warnf(CodeUnusualConnection, "", edge.ID,
		"%s: unusual connection from %q to %q", label, sourceCategory, targetCategory)
}

func (v *Validator) checkCycles(r *run, nodes []models.Node, edges []models.Edge) {
	for _, nodeID := range detectCycles(nodes, edges) {
		r.errorf(CodeCyclicDependency, nodeID, "",
			"cyclic dependency detected involving node %q", nodeID)
	}
}

func (v *Validator) checkLogicalIntegrity(r *run, nodes []models.Node, edges []models.Edge) {
	hasTriggers := false
	hasActions := false

	for i := range nodes {
		switch nodes[i].EffectiveCategory() {
		case models.CategoryTriggers:
			hasTriggers = true
		case models.CategoryActions:
			hasActions = true
		}
	}

	if !hasTriggers {
		r.warnf(CodeNoTriggers, "", "", "schema has no triggers; the bot will not react to any event")
	}

	if !hasActions {
		r.warnf(CodeNoActions, "", "", "schema has no actions; the bot will not do anything")
	}

	connected := make(map[string]bool, len(nodes))
	for _, edge := range edges {
		connected[edge.Source] = true
		connected[edge.Target] = true
	}

	for i := range nodes {
		if !connected[nodes[i].ID] {
			r.warnf(CodeIsolatedNode, nodes[i].ID, "",
				"node %q is isolated and takes no part in the bot logic", nodes[i].ID)
		}
	}

	v.checkConditionBranches(r, nodes, edges)
}

// checkConditionBranches flags condition nodes with more than two outgoing
// branches or duplicate true/false handles. Fewer than two is incomplete
// but fixable, so it is left to the auto-fixer rather than reported here.
func (v *Validator) checkConditionBranches(r *run, nodes []models.Node, edges []models.Edge) {
	outgoing := make(map[string][]models.Edge, len(nodes))
	for _, edge := range edges {
		outgoing[edge.Source] = append(outgoing[edge.Source], edge)
	}

	for i := range nodes {
		node := &nodes[i]
		if node.EffectiveCategory() != models.CategoryConditions {
			continue
		}

		branches := outgoing[node.ID]
		if len(branches) > 2 {
			r.warnf(CodeConditionBranchConflict, node.ID, "",
				"condition node %q has %d outgoing branches, expected two", node.ID, len(branches))

			continue
		}

		handles := make(map[string]int, 2)
		for _, branch := range branches {
			handles[branch.SourceHandle]++
		}

		for _, handle := range []string{"true", "false"} {
			if handles[handle] > 1 {
				r.warnf(CodeConditionBranchConflict, node.ID, "",
					"condition node %q has %d branches on the %q handle", node.ID, handles[handle], handle)
			}
		}
	}
}

func (v *Validator) checkReachability(r *run, nodes []models.Node, edges []models.Edge) {
	var triggers []string

	for i := range nodes {
		if nodes[i].EffectiveCategory() == models.CategoryTriggers {
			triggers = append(triggers, nodes[i].ID)
		}
	}

	if len(triggers) == 0 {
		return
	}

	reachable := reachableFrom(triggers, nodes, edges)

	for i := range nodes {
		node := &nodes[i]
		if node.EffectiveCategory() == models.CategoryTriggers {
			continue
		}

		if !reachable[node.ID] {
			r.warnf(CodeUnreachableNode, node.ID, "",
				"node %q is unreachable from any trigger", node.ID)
		}
	}
}

func validCategory(c models.Category) bool {
	for _, valid := range models.ValidCategories {
		if c == valid {
			return true
		}
	}

	return false
}

func nodeLabel(index int, id string) string {
	if id != "" {
		return fmt.Sprintf("node %q", id)
	}

	return fmt.Sprintf("node #%d", index+1)
}

func edgeLabel(index int, id string) string {
	if id != "" {
		return fmt.Sprintf("connection %q", id)
	}

	return fmt.Sprintf("connection #%d", index+1)
}
