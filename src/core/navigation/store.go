package navigation

import (
	"context"
	"sync"
)

// SessionStore keeps the navigation State of each session.
type SessionStore interface {
	// Get returns the state of sessionID. ok is false for a session that
	// has no state yet.
	Get(ctx context.Context, sessionID string) (state State, ok bool, err error)
	// Set stores the state of sessionID
	Set(ctx context.Context, sessionID string, state State) error
}

// MemoryStore is a process-local SessionStore. State is lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

var _ SessionStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (State, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[sessionID]
	return state, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, sessionID string, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[sessionID] = state
	return nil
}
