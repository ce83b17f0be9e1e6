package state

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MemoryStore is the in-process Store used by the CLI, the simulator and
// tests. A single mutex guards the map; session snapshots are copied out
// so callers never share mutable state with the store.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (s *MemoryStore) Touch(_ context.Context, userID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[userID]
	if !exists {
		session = &Session{UserID: userID}
		s.sessions[userID] = session
	}

	session.MessageCount++
	session.LastActivity = s.now()

	return snapshot(session), nil
}

func (s *MemoryStore) Get(_ context.Context, userID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[userID]
	if !exists {
		return Session{}, ErrSessionNotFound
	}

	return snapshot(session), nil
}

func (s *MemoryStore) SetVariable(_ context.Context, userID, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[userID]
	if !exists {
		session = &Session{UserID: userID, LastActivity: s.now()}
		s.sessions[userID] = session
	}

	if session.Variables == nil {
		session.Variables = make(map[string]string)
	}

	session.Variables[name] = value

	return nil
}

func (s *MemoryStore) UserCount(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.sessions)), nil
}

func (s *MemoryStore) PruneIdle(_ context.Context, idleFor time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idleFor)
	pruned := 0

	for userID, session := range s.sessions {
		if session.LastActivity.Before(cutoff) {
			delete(s.sessions, userID)

			pruned++
		}
	}

	return pruned, nil
}

func snapshot(session *Session) Session {
	copied := *session
	copied.Variables = maps.Clone(session.Variables)

	return copied
}
