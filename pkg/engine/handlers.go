package engine

import (
	"context"
	"strings"

	"github.com/botblocks/botblocks/pkg/events"
	"github.com/botblocks/botblocks/pkg/models"
	"github.com/botblocks/botblocks/pkg/registry"
	"github.com/botblocks/botblocks/pkg/template"
)

const defaultParseMode = "HTML"

// builtinHandlers binds the built-in node behaviors to this engine's
// collaborators. Triggers and start nodes are no-ops at execution time:
// their matching already happened when the traversal root was chosen.
func (e *Engine) builtinHandlers() map[string]registry.Handler {
	noop := func(_ context.Context, _ models.Node, _ *models.ExecutionContext) (models.NodeResult, error) {
		return models.OK(), nil
	}

	return map[string]registry.Handler{
		models.NodeTypeStart:           noop,
		models.NodeTypeTriggerCommand:  noop,
		models.NodeTypeTriggerMessage:  noop,
		models.NodeTypeActionSend:      e.handleSendMessage,
		models.NodeTypeConditionText:   e.handleTextCondition,
		models.NodeTypeDataVariable:    e.handleVariable,
		models.NodeTypeIntegrationHTTP: e.handleHTTPIntegration,
	}
}

// handleSendMessage resolves the node's message template against the run
// variables and hands the result to the messenger. Delivery is
// fire-and-forget; a messenger error is logged and does not fail the node.
func (e *Engine) handleSendMessage(ctx context.Context, node models.Node, run *models.ExecutionContext) (models.NodeResult, error) {
	text := node.DataString("message")
	if text == "" {
		text = node.DataString("text")
	}

	effect := models.SideEffect{
		Type:      models.EffectSendMessage,
		Text:      template.Resolve(text, run.Variables),
		ParseMode: e.parseMode(node),
		ChatID:    run.Event.ChatID,
	}
	run.Effects = append(run.Effects, effect)

	if err := e.messenger.SendMessage(ctx, effect); err != nil {
		e.logger.Error("Message delivery failed", "execution_id", run.ID, "node_id", node.ID, "error", err)
	}

	e.publish(ctx, events.MessageSent{
		BaseEvent:   events.NewBaseEvent(events.MessageSentEvent, e.schemaID),
		ExecutionID: run.ID,
		ChatID:      effect.ChatID,
		Text:        effect.Text,
		ParseMode:   effect.ParseMode,
	})

	return models.OK(), nil
}

func (e *Engine) parseMode(node models.Node) string {
	if mode := node.DataString("parseMode"); mode != "" {
		return mode
	}

	if e.schema.Settings != nil && e.schema.Settings.ParseMode != "" {
		return e.schema.Settings.ParseMode
	}

	return defaultParseMode
}

// handleTextCondition evaluates the configured predicate case-insensitively
// against the inbound text.
func (e *Engine) handleTextCondition(_ context.Context, node models.Node, run *models.ExecutionContext) (models.NodeResult, error) {
	predicate := node.DataString("conditionType")
	if predicate == "" {
		predicate = node.DataString("condition")
	}

	value := node.DataString("value")
	if value == "" {
		value = node.DataString("pattern")
	}

	text := strings.ToLower(run.Event.Text)
	value = strings.ToLower(value)

	switch strings.ToLower(predicate) {
	case "contains":
		return models.Condition(strings.Contains(text, value)), nil
	case "equals":
		return models.Condition(text == value), nil
	case "startswith", "starts_with":
		return models.Condition(strings.HasPrefix(text, value)), nil
	default:
		e.logger.Warn("Unknown condition predicate", "node_id", node.ID, "predicate", predicate)

		return models.Condition(false), nil
	}
}

// handleVariable sets a run variable and persists it as a per-user override
// so later runs see it.
func (e *Engine) handleVariable(ctx context.Context, node models.Node, run *models.ExecutionContext) (models.NodeResult, error) {
	name := node.DataString("variableName")
	if name == "" {
		e.logger.Warn("Variable node has no variable name", "node_id", node.ID)

		return models.OK(), nil
	}

	value := template.Resolve(node.DataString("value"), run.Variables)
	run.Variables[name] = value

	if err := e.sessions.SetVariable(ctx, run.Event.UserID, name, value); err != nil {
		e.logger.Error("Variable persistence failed", "node_id", node.ID, "variable", name, "error", err)
	}

	return models.OK(), nil
}

// handleHTTPIntegration emits an http_request side effect for the host to
// perform. The traversal itself never does blocking I/O.
func (e *Engine) handleHTTPIntegration(_ context.Context, node models.Node, run *models.ExecutionContext) (models.NodeResult, error) {
	method := strings.ToUpper(node.DataString("method"))
	if method == "" {
		method = "GET"
	}

	run.Effects = append(run.Effects, models.SideEffect{
		Type:   models.EffectHTTPRequest,
		URL:    template.Resolve(node.DataString("url"), run.Variables),
		Method: method,
	})

	return models.OK(), nil
}
