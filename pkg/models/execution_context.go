package models

import "time"

// ExecutionContext is the ephemeral per-run state owned by the execution
// engine. It is created for one inbound event and discarded when the run
// ends; only session state outlives it.
type ExecutionContext struct {
	ID        string            `json:"id"`
	Event     InboundEvent      `json:"event"`
	Variables map[string]string `json:"variables,omitempty"`
	Effects   []SideEffect      `json:"effects,omitempty"`
	StartedAt time.Time         `json:"started_at"`
}

// NodeResult is what a node handler returns to the engine. ConditionResult
// is set only by condition handlers and drives sourceHandle branching.
type NodeResult struct {
	Success         bool           `json:"success"`
	ConditionResult *bool          `json:"condition_result,omitempty"`
	Data            map[string]any `json:"data,omitempty"`
}

// OK is the plain success result used by no-op handlers.
func OK() NodeResult {
	return NodeResult{Success: true}
}

// Condition wraps a predicate outcome into a successful result.
func Condition(outcome bool) NodeResult {
	return NodeResult{Success: true, ConditionResult: &outcome}
}
