package models

// EventType classifies an inbound messenger event.
type EventType string

const (
	EventTypeCommand EventType = "command" // Text starting with a slash command
	EventTypeText    EventType = "text"    // Any other text message
)

// InboundEvent is one incoming messenger update, as delivered by the
// messenger adapter. The engine consumes exactly one event per run.
type InboundEvent struct {
	Type   EventType `json:"type"    validate:"required,oneof=command text"`
	Text   string    `json:"text"`
	UserID string    `json:"userId"  validate:"required"`
	ChatID string    `json:"chatId"  validate:"required"`
}

// SideEffect types produced by the engine for the messenger adapter.
const (
	EffectSendMessage = "send_message"
	EffectHTTPRequest = "http_request"
)

// SideEffect is one outbound action produced during a run. The engine hands
// effects to the messenger collaborator and does not await delivery.
type SideEffect struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	ParseMode string `json:"parseMode,omitempty"`
	ChatID    string `json:"chatId,omitempty"`
	URL       string `json:"url,omitempty"`
	Method    string `json:"method,omitempty"`
}
