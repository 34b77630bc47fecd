package session

import (
	"context"
	"sync"
)

// MemoryStore keeps session windows in process memory. Suitable for single
// node deployments and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	window  int
	history map[string][]Message
}

// NewMemoryStore creates a store retaining at most window exchanges per
// session. One exchange is a user message plus the assistant reply, so the
// store keeps up to 2*window messages.
func NewMemoryStore(window int) *MemoryStore {
	if window <= 0 {
		window = 5
	}
	return &MemoryStore{
		window:  window,
		history: make(map[string][]Message),
	}
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.history[sessionID], msg)
	if max := 2 * s.window; len(turns) > max {
		turns = turns[len(turns)-max:]
	}
	s.history[sessionID] = turns
	return nil
}

func (s *MemoryStore) Window(_ context.Context, sessionID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.history[sessionID]
	out := make([]Message, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, sessionID)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
