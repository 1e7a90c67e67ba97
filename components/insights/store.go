package insights

import (
	"context"
	"sync"
)

// StateStore keeps one dashboard State per session.
type StateStore interface {
	Load(ctx context.Context, session string) (State, bool, error)
	Save(ctx context.Context, session string, state State) error
	Delete(ctx context.Context, session string) error
}

// InMemoryStateStore is a concurrency-safe process-local store. State does not
// survive a restart.
type InMemoryStateStore struct {
	mu   sync.RWMutex
	data map[string]State
}

// NewInMemoryStateStore creates an empty store.
func NewInMemoryStateStore() *InMemoryStateStore {
	return &InMemoryStateStore{
		data: make(map[string]State),
	}
}

// Load returns a copy of the stored state.
func (s *InMemoryStateStore) Load(_ context.Context, session string) (State, bool, error) {
	if session == "" {
		return State{}, false, ErrSessionRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.data[session]
	if !ok {
		return State{}, false, nil
	}
	return state.Clone(), true, nil
}

// Save stores a copy of state.
func (s *InMemoryStateStore) Save(_ context.Context, session string, state State) error {
	if session == "" {
		return ErrSessionRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[session] = state.Clone()
	return nil
}

// Delete drops a session.
func (s *InMemoryStateStore) Delete(_ context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, session)
	return nil
}

// Len reports the number of sessions held.
func (s *InMemoryStateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
