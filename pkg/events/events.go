// Package events defines the event types published during bot schema
// lifecycle and execution.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every botblocks event.
const Topic = "botblocks.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Execution lifecycle events.
	ExecutionStartedEvent  EventType = "execution.started"
	ExecutionFinishedEvent EventType = "execution.finished"

	// Node-level events.
	NodeExecutionFailedEvent EventType = "node.execution.failed"

	// Side effect events.
	MessageSentEvent EventType = "message.sent"

	// Schema lifecycle events.
	SchemaFixedEvent EventType = "schema.fixed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	SchemaID  string         `json:"schema_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, schemaID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		SchemaID:  schemaID,
		Metadata:  make(map[string]any),
	}
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	TriggerType string `json:"trigger_type"`
	UserID      string `json:"user_id"`
	ChatID      string `json:"chat_id"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionFinished struct {
	BaseEvent

	ExecutionID   string `json:"execution_id"`
	DurationMs    int64  `json:"duration_ms"`
	NodesExecuted int    `json:"nodes_executed"`
	EffectCount   int    `json:"effect_count"`
}

func (e ExecutionFinished) GetType() EventType {
	return ExecutionFinishedEvent
}

type NodeExecutionFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id"`
	Error       string `json:"error"`
}

func (e NodeExecutionFailed) GetType() EventType {
	return NodeExecutionFailedEvent
}

type MessageSent struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	ChatID      string `json:"chat_id"`
	Text        string `json:"text"`
	ParseMode   string `json:"parse_mode,omitempty"`
}

func (e MessageSent) GetType() EventType {
	return MessageSentEvent
}

type SchemaFixed struct {
	BaseEvent

	FixCount int      `json:"fix_count"`
	FixLog   []string `json:"fix_log,omitempty"`
}

func (e SchemaFixed) GetType() EventType {
	return SchemaFixedEvent
}
