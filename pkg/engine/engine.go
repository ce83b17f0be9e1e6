// Package engine executes bot schemas: it matches an inbound event to a
// trigger, walks the graph edge by edge and collects the side effects each
// node produces. One call to ExecuteWorkflow is one synchronous traversal;
// concurrent calls against the same schema are safe because only the
// per-run context and the session store are mutated.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/botblocks/botblocks/pkg/eventbus"
	"github.com/botblocks/botblocks/pkg/events"
	"github.com/botblocks/botblocks/pkg/models"
	"github.com/botblocks/botblocks/pkg/registry"
	"github.com/botblocks/botblocks/pkg/state"
	"github.com/botblocks/botblocks/pkg/template"
)

var (
	ErrNoSchema    = errors.New("engine requires a schema")
	ErrNoSessions  = errors.New("engine requires a session store")
	ErrNoMessenger = errors.New("engine requires a messenger")
)

// defaultMaxSteps bounds a single traversal. Validated schemas are acyclic
// and finite, so the cap only matters for graphs that bypassed validation.
const defaultMaxSteps = 1000

// Messenger delivers side effects to the outside world. Dispatch is
// fire-and-forget: the engine logs delivery errors and moves on.
type Messenger interface {
	SendMessage(ctx context.Context, effect models.SideEffect) error
}

// Config wires an Engine. Schema, Sessions and Messenger are required;
// Registry defaults to the builtin table and Publisher may be nil.
type Config struct {
	Schema    *models.BotSchema
	SchemaID  string
	Registry  *registry.Registry
	Sessions  state.Store
	Messenger Messenger
	Publisher eventbus.EventPublisher
	Logger    *slog.Logger
	MaxSteps  int
}

type Engine struct {
	schema    *models.BotSchema
	schemaID  string
	registry  *registry.Registry
	sessions  state.Store
	messenger Messenger
	publisher eventbus.EventPublisher
	logger    *slog.Logger
	validate  *validator.Validate
	maxSteps  int
	startedAt time.Time

	nodeByID      map[string]*models.Node
	edgesBySource map[string][]models.Edge
	handlers      map[string]registry.Handler
}

func New(cfg Config) (*Engine, error) {
	if cfg.Schema == nil {
		return nil, ErrNoSchema
	}

	if cfg.Sessions == nil {
		return nil, ErrNoSessions
	}

	if cfg.Messenger == nil {
		return nil, ErrNoMessenger
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reg := cfg.Registry
	if reg == nil {
		reg = registry.Builtin(logger)
	}

	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}

	e := &Engine{
		schema:        cfg.Schema,
		schemaID:      cfg.SchemaID,
		registry:      reg,
		sessions:      cfg.Sessions,
		messenger:     cfg.Messenger,
		publisher:     cfg.Publisher,
		logger:        logger.With("module", "engine"),
		validate:      validator.New(),
		maxSteps:      maxSteps,
		startedAt:     time.Now(),
		nodeByID:      cfg.Schema.NodeByID(),
		edgesBySource: cfg.Schema.EdgesBySource(),
	}
	e.handlers = e.builtinHandlers()

	return e, nil
}

// ExecuteWorkflow runs the schema against one inbound event. Node failures
// are contained to their branch; the only error this returns is a malformed
// event, which is a caller contract violation rather than a run outcome.
func (e *Engine) ExecuteWorkflow(ctx context.Context, event models.InboundEvent, startNodeID string) (*models.ExecutionContext, error) {
	if err := e.validate.Struct(event); err != nil {
		return nil, fmt.Errorf("invalid inbound event: %w", err)
	}

	run := &models.ExecutionContext{
		ID:        uuid.New().String(),
		Event:     event,
		Variables: e.buildVariables(ctx, event),
		StartedAt: time.Now(),
	}

	start := e.findStartNode(startNodeID, event)
	if start == nil {
		e.logger.Debug("No start node matched event", "execution_id", run.ID, "event_type", event.Type)

		return run, nil
	}

	e.publish(ctx, events.ExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent, e.schemaID),
		ExecutionID: run.ID,
		TriggerType: start.Type,
		UserID:      event.UserID,
		ChatID:      event.ChatID,
	})

	steps := 0
	e.executeNode(ctx, start, run, &steps)

	e.publish(ctx, events.ExecutionFinished{
		BaseEvent:     events.NewBaseEvent(events.ExecutionFinishedEvent, e.schemaID),
		ExecutionID:   run.ID,
		DurationMs:    time.Since(run.StartedAt).Milliseconds(),
		NodesExecuted: steps,
		EffectCount:   len(run.Effects),
	})

	return run, nil
}

// buildVariables layers the run's variable map: schema defaults, then
// session counters, then per-user overrides.
func (e *Engine) buildVariables(ctx context.Context, event models.InboundEvent) map[string]string {
	defaults := make(map[string]string, len(e.schema.Variables))
	for name, variable := range e.schema.Variables {
		defaults[name] = fmt.Sprintf("%v", variable.DefaultValue)
	}

	counters := make(map[string]string, 4)

	session, err := e.sessions.Touch(ctx, event.UserID)
	if err != nil {
		e.logger.Error("Session touch failed", "user_id", event.UserID, "error", err)
	} else {
		counters["message_count"] = strconv.FormatInt(session.MessageCount, 10)
		counters["last_update"] = session.LastActivity.Format(time.RFC3339)
	}

	if userCount, err := e.sessions.UserCount(ctx); err == nil {
		counters["user_count"] = strconv.FormatInt(userCount, 10)
	}

	counters["uptime"] = strconv.FormatInt(int64(time.Since(e.startedAt).Seconds()), 10)

	return template.Merge(defaults, counters, session.Variables)
}

// findStartNode resolves the traversal root: the explicit id when given,
// else the first start node, else the first trigger matching the event in
// declaration order.
func (e *Engine) findStartNode(startNodeID string, event models.InboundEvent) *models.Node {
	if startNodeID != "" {
		node := e.nodeByID[startNodeID]
		if node == nil {
			e.logger.Warn("Requested start node not found", "node_id", startNodeID)
		}

		return node
	}

	for i := range e.schema.Nodes {
		if e.schema.Nodes[i].Type == models.NodeTypeStart {
			return &e.schema.Nodes[i]
		}
	}

	for i := range e.schema.Nodes {
		node := &e.schema.Nodes[i]
		if node.IsTrigger() && e.triggerMatches(node, event) {
			return node
		}
	}

	return nil
}

// triggerMatches applies the trigger match policy: command triggers need
// exact, case-sensitive equality with the event text; message triggers
// match any non-command text.
func (e *Engine) triggerMatches(node *models.Node, event models.InboundEvent) bool {
	switch node.Type {
	case models.NodeTypeTriggerCommand:
		return event.Type == models.EventTypeCommand && node.DataString("command") == event.Text
	case models.NodeTypeTriggerMessage:
		return event.Type == models.EventTypeText
	default:
		return false
	}
}

// executeNode dispatches one node and, on success, descends into its
// outgoing edges. Failures and panics are logged and contained: the branch
// ends, siblings from earlier ancestors are unaffected.
func (e *Engine) executeNode(ctx context.Context, node *models.Node, run *models.ExecutionContext, steps *int) {
	if *steps >= e.maxSteps {
		e.logger.Warn("Traversal step limit reached", "execution_id", run.ID, "node_id", node.ID)

		return
	}

	*steps++

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Node handler panicked", "execution_id", run.ID, "node_id", node.ID, "panic", r)
			e.publishNodeFailure(ctx, run, node, fmt.Sprintf("panic: %v", r))
		}
	}()

	handler, found := e.handlers[node.Type]
	if !found {
		handler, found = e.registry.Handler(node.Type)
	}

	if !found {
		// Forward-compatible tolerance: unknown types are a successful
		// no-op so experimental nodes never crash an established engine.
		e.logger.Info("Unknown node type, skipping", "node_id", node.ID, "type", node.Type)
		e.executeNextNodes(ctx, node, run, models.OK(), steps)

		return
	}

	result, err := handler(ctx, *node, run)
	if err != nil {
		e.logger.Error("Node execution failed", "execution_id", run.ID, "node_id", node.ID, "error", err)
		e.publishNodeFailure(ctx, run, node, err.Error())

		return
	}

	if !result.Success {
		e.logger.Warn("Node reported failure", "execution_id", run.ID, "node_id", node.ID)

		return
	}

	e.executeNextNodes(ctx, node, run, result, steps)
}

// executeNextNodes fires the current node's outgoing edges. On condition
// sources an edge with a sourceHandle fires only when the handle matches
// the condition outcome; edges without a handle always fire.
func (e *Engine) executeNextNodes(ctx context.Context, node *models.Node, run *models.ExecutionContext, result models.NodeResult, steps *int) {
	isCondition := node.EffectiveCategory() == models.CategoryConditions

	for _, edge := range e.edgesBySource[node.ID] {
		if isCondition && edge.SourceHandle != "" && !handleMatches(edge.SourceHandle, result.ConditionResult) {
			continue
		}

		target := e.nodeByID[edge.Target]
		if target == nil {
			e.logger.Warn("Edge target not found", "connection_id", edge.ID, "target", edge.Target)

			continue
		}

		e.executeNode(ctx, target, run, steps)
	}
}

// handleMatches keeps the exact string semantics of the branch handles:
// "true" fires only on an explicit true outcome, "false" only on an
// explicit false one. An absent outcome fires neither.
func handleMatches(handle string, outcome *bool) bool {
	if outcome == nil {
		return false
	}

	switch handle {
	case "true":
		return *outcome
	case "false":
		return !*outcome
	default:
		return false
	}
}

func (e *Engine) publish(ctx context.Context, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, e.schemaID, event); err != nil {
		e.logger.Error("Event publish failed", "event_type", event.GetType(), "error", err)
	}
}

func (e *Engine) publishNodeFailure(ctx context.Context, run *models.ExecutionContext, node *models.Node, message string) {
	e.publish(ctx, events.NodeExecutionFailed{
		BaseEvent:   events.NewBaseEvent(events.NodeExecutionFailedEvent, e.schemaID),
		ExecutionID: run.ID,
		NodeID:      node.ID,
		Error:       message,
	})
}
