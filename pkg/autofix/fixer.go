// Package autofix repairs common schema defects so a graph becomes
// executable without bothering the user. Fixes run in a fixed priority
// order because later fixes assume earlier invariants: every node has a
// type before fields are filled, edges are valid before cycles are broken.
package autofix

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/botblocks/botblocks/pkg/models"
	"github.com/botblocks/botblocks/pkg/registry"
	"github.com/botblocks/botblocks/pkg/validation"
)

// Result is the repaired graph plus a log of every change made, in the
// order the fixes were applied. An empty FixLog means the graph was
// already in shape.
type Result struct {
	Nodes  []models.Node `json:"nodes"`
	Edges  []models.Edge `json:"edges"`
	FixLog []string      `json:"fixLog"`
}

// Stats aggregates a fix log by the leading verb of each entry.
type Stats struct {
	TotalFixes int            `json:"totalFixes"`
	FixTypes   map[string]int `json:"fixTypes"`
}

// Fixer applies the repair pipeline. Construct with New; the registry
// supplies per-type required keys and default values.
type Fixer struct {
	registry *registry.Registry
	logger   *slog.Logger
}

func New(reg *registry.Registry, logger *slog.Logger) *Fixer {
	return &Fixer{
		registry: reg,
		logger:   logger.With("module", "autofix"),
	}
}

// ApplyAllFixes runs every fix against a private copy of the input. The
// caller's slices and node config maps are never mutated.
func (f *Fixer) ApplyAllFixes(nodes []models.Node, edges []models.Edge) Result {
	g := &graph{
		nodes:    cloneNodes(nodes),
		edges:    append([]models.Edge(nil), edges...),
		registry: f.registry,
	}

	g.fixMissingTypes()
	g.fixMissingFields()
	g.fixInvalidConnections()
	g.fixIsolatedNodes()
	g.fixMissingTrigger()
	g.fixMissingAction()
	g.fixIncompleteConditions()
	g.dropDanglingEdges()
	g.breakCycles()

	for _, entry := range g.log {
		f.logger.Debug("Applied fix", "fix", entry)
	}

	return Result{Nodes: g.nodes, Edges: g.edges, FixLog: g.log}
}

// GetStats aggregates a fix log into per-kind counts.
func GetStats(fixLog []string) Stats {
	stats := Stats{
		TotalFixes: len(fixLog),
		FixTypes:   make(map[string]int),
	}

	for _, entry := range fixLog {
		verb, _, _ := strings.Cut(entry, " ")
		stats.FixTypes[verb]++
	}

	return stats
}

// graph is the fixer's private working copy.
type graph struct {
	nodes    []models.Node
	edges    []models.Edge
	log      []string
	registry *registry.Registry
}

func (g *graph) logf(format string, args ...any) {
	g.log = append(g.log, fmt.Sprintf(format, args...))
}

// fixMissingTypes assigns a type to untyped nodes: a node with no incoming
// edges (or the sole node) becomes a command trigger, anything else becomes
// a send-message action.
func (g *graph) fixMissingTypes() {
	for i := range g.nodes {
		node := &g.nodes[i]
		if node.Type != "" && node.Type != "default" {
			continue
		}

		isRoot := len(g.nodes) == 1 || !g.hasIncoming(node.ID)

		if isRoot {
			node.Type = models.NodeTypeTriggerCommand
			g.setData(node, "command", "/start")
			g.logf("Assigned type %q to node %q", models.NodeTypeTriggerCommand, node.ID)
		} else {
			node.Type = models.NodeTypeActionSend
			g.setData(node, "message", "Hello!")
			g.logf("Assigned type %q to node %q", models.NodeTypeActionSend, node.ID)
		}
	}
}

// fixMissingFields fills missing required config keys with the registry
// defaults for the node's type, one log entry per field filled.
func (g *graph) fixMissingFields() {
	for i := range g.nodes {
		node := &g.nodes[i]

		desc, ok := g.registry.Descriptor(node.Type)
		if !ok {
			continue
		}

		for _, key := range desc.RequiredKeys {
			if node.DataString(key) != "" {
				continue
			}

			// Send-message actions accept "text" as an alias for "message".
			if key == "message" && node.DataString("text") != "" {
				continue
			}

			value := desc.Defaults[key]
			g.setData(node, key, value)
			g.logf("Filled %s %q for node %q", key, value, node.ID)
		}
	}
}

// fixInvalidConnections removes edges that point back into a trigger from
// an action or data node. Triggers must stay graph roots.
func (g *graph) fixInvalidConnections() {
	index := g.nodeIndex()
	kept := g.edges[:0:0]

	for _, edge := range g.edges {
		source, sourceOK := index[edge.Source]
		target, targetOK := index[edge.Target]

		if sourceOK && targetOK && target.EffectiveCategory() == models.CategoryTriggers {
			sourceCategory := source.EffectiveCategory()
			if sourceCategory == models.CategoryActions || sourceCategory == models.CategoryData {
				g.logf("Removed connection %q from %q into trigger %q", edge.ID, edge.Source, edge.Target)

				continue
			}
		}

		kept = append(kept, edge)
	}

	g.edges = kept
}

// fixIsolatedNodes connects every node with no incident edge to its nearest
// neighbor by canvas distance. Skipped for single-node graphs.
func (g *graph) fixIsolatedNodes() {
	if len(g.nodes) < 2 {
		return
	}

	connected := make(map[string]bool, len(g.nodes))
	for _, edge := range g.edges {
		connected[edge.Source] = true
		connected[edge.Target] = true
	}

	for i := range g.nodes {
		node := &g.nodes[i]
		if connected[node.ID] {
			continue
		}

		nearest := g.nearestNode(node)
		if nearest == nil {
			continue
		}

		g.edges = append(g.edges, models.Edge{
			ID:     newEdgeID(),
			Source: nearest.ID,
			Target: node.ID,
		})
		g.logf("Connected isolated node %q to %q", node.ID, nearest.ID)
	}
}

// fixMissingTrigger guarantees at least one trigger: the first node is
// promoted, or a fresh trigger is synthesized when the graph is empty.
func (g *graph) fixMissingTrigger() {
	for i := range g.nodes {
		if g.nodes[i].IsTrigger() {
			return
		}
	}

	if len(g.nodes) > 0 {
		first := &g.nodes[0]
		first.Type = models.NodeTypeTriggerCommand
		first.Category = ""
		g.setData(first, "command", "/start")
		g.logf("Promoted node %q to trigger", first.ID)

		return
	}

	trigger := models.Node{
		ID:       newNodeID("trigger"),
		Type:     models.NodeTypeTriggerCommand,
		Position: models.Position{X: 100, Y: 100},
		Data:     map[string]any{"command": "/start"},
	}
	g.nodes = append(g.nodes, trigger)
	g.logf("Created trigger node %q", trigger.ID)
}

// fixMissingAction guarantees at least one action, wired from an existing
// trigger when one is present.
func (g *graph) fixMissingAction() {
	if len(g.nodes) == 0 {
		return
	}

	for i := range g.nodes {
		if g.nodes[i].IsAction() {
			return
		}
	}

	action := models.Node{
		ID:       newNodeID("action"),
		Type:     models.NodeTypeActionSend,
		Position: models.Position{X: 300, Y: 100},
		Data:     map[string]any{"message": "Hello! I am your bot."},
	}
	g.nodes = append(g.nodes, action)

	for i := range g.nodes {
		if g.nodes[i].IsTrigger() {
			g.edges = append(g.edges, models.Edge{
				ID:     newEdgeID(),
				Source: g.nodes[i].ID,
				Target: action.ID,
			})

			break
		}
	}

	g.logf("Created action node %q", action.ID)
}

// fixIncompleteConditions gives every condition node two outgoing branches,
// synthesizing target actions for the missing true/false handles.
func (g *graph) fixIncompleteConditions() {
	conditions := make([]models.Node, 0, len(g.nodes))

	for i := range g.nodes {
		if g.nodes[i].IsCondition() {
			conditions = append(conditions, g.nodes[i])
		}
	}

	for _, condition := range conditions {
		outgoing := 0

		for _, edge := range g.edges {
			if edge.Source == condition.ID {
				outgoing++
			}
		}

		if outgoing >= 2 {
			continue
		}

		branchText := map[int]string{0: "Condition met", 1: "Condition not met"}
		branchHandle := map[int]string{0: "true", 1: "false"}

		for i := outgoing; i < 2; i++ {
			action := models.Node{
				ID:   newNodeID("action"),
				Type: models.NodeTypeActionSend,
				Position: models.Position{
					X: condition.Position.X + 200,
					Y: condition.Position.Y + float64(i)*100,
				},
				Data: map[string]any{"message": branchText[i]},
			}
			g.nodes = append(g.nodes, action)
			g.edges = append(g.edges, models.Edge{
				ID:           newEdgeID(),
				Source:       condition.ID,
				Target:       action.ID,
				SourceHandle: branchHandle[i],
			})
		}

		g.logf("Added missing branches for condition node %q", condition.ID)
	}
}

// dropDanglingEdges removes edges whose endpoints no longer resolve.
// Defensive cleanup after the preceding steps.
func (g *graph) dropDanglingEdges() {
	index := g.nodeIndex()
	kept := g.edges[:0:0]

	for _, edge := range g.edges {
		_, sourceOK := index[edge.Source]
		_, targetOK := index[edge.Target]

		if sourceOK && targetOK {
			kept = append(kept, edge)
		}
	}

	if removed := len(g.edges) - len(kept); removed > 0 {
		g.logf("Dropped %d dangling connections", removed)
	}

	g.edges = kept
}

// breakCycles removes the edges that close directed cycles, repeating the
// sweep until the graph is acyclic.
func (g *graph) breakCycles() {
	removed := 0

	for {
		closing := validation.CycleEdges(g.nodes, g.edges)
		if len(closing) == 0 {
			break
		}

		// Edges may lack ids at this point, so each closing edge drops
		// exactly one matching entry by position.
		drop := make(map[int]bool, len(closing))

		for _, edge := range closing {
			for i := range g.edges {
				if !drop[i] && g.edges[i] == edge {
					drop[i] = true

					break
				}
			}
		}

		kept := g.edges[:0:0]

		for i, edge := range g.edges {
			if !drop[i] {
				kept = append(kept, edge)
			}
		}

		removed += len(g.edges) - len(kept)
		g.edges = kept
	}

	if removed > 0 {
		g.logf("Removed %d cycle-closing connections", removed)
	}
}

func (g *graph) hasIncoming(nodeID string) bool {
	for _, edge := range g.edges {
		if edge.Target == nodeID {
			return true
		}
	}

	return false
}

func (g *graph) nodeIndex() map[string]*models.Node {
	index := make(map[string]*models.Node, len(g.nodes))
	for i := range g.nodes {
		index[g.nodes[i].ID] = &g.nodes[i]
	}

	return index
}

// nearestNode picks the closest other node by Euclidean canvas distance.
// Equidistant candidates resolve to the first in declaration order.
func (g *graph) nearestNode(node *models.Node) *models.Node {
	var nearest *models.Node

	minDistance := math.Inf(1)

	for i := range g.nodes {
		candidate := &g.nodes[i]
		if candidate.ID == node.ID {
			continue
		}

		dx := candidate.Position.X - node.Position.X
		dy := candidate.Position.Y - node.Position.Y

		if distance := math.Hypot(dx, dy); distance < minDistance {
			minDistance = distance
			nearest = candidate
		}
	}

	return nearest
}

func (g *graph) setData(node *models.Node, key string, value any) {
	if node.Data == nil {
		node.Data = make(map[string]any, 1)
	}

	node.Data[key] = value
}

func cloneNodes(nodes []models.Node) []models.Node {
	cloned := make([]models.Node, len(nodes))

	for i, node := range nodes {
		cloned[i] = node
		cloned[i].Data = maps.Clone(node.Data)
	}

	return cloned
}

func newNodeID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func newEdgeID() string {
	return "edge-" + uuid.NewString()
}
