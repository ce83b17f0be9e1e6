// Package state keeps per-user session records across runs: message
// counters, last-activity timestamps and variable overrides. The execution
// engine reads and increments a session on every inbound event.
package state

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one user's long-lived record. Snapshots returned by a Store
// are copies; mutating them does not affect stored state.
type Session struct {
	UserID       string            `json:"user_id"`
	MessageCount int64             `json:"message_count"`
	LastActivity time.Time         `json:"last_activity"`
	Variables    map[string]string `json:"variables,omitempty"`
}

// Store persists sessions. Implementations must serialize mutations per
// user id; runs for different users proceed independently.
type Store interface {
	// Touch increments the user's message counter, stamps the activity
	// time and returns the updated session, creating it on first contact.
	Touch(ctx context.Context, userID string) (Session, error)

	// Get returns the user's session or ErrSessionNotFound.
	Get(ctx context.Context, userID string) (Session, error)

	// SetVariable stores a per-user variable override.
	SetVariable(ctx context.Context, userID, name, value string) error

	// UserCount returns the number of users with a session.
	UserCount(ctx context.Context) (int64, error)

	// PruneIdle removes sessions idle for at least the given duration and
	// returns how many were dropped.
	PruneIdle(ctx context.Context, idleFor time.Duration) (int, error)
}
