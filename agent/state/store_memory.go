package state

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps session history in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
	maxTurns int
}

func NewMemoryStore(maxTurns int) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]Turn),
		maxTurns: maxTurns,
	}
}

func (s *MemoryStore) Append(_ context.Context, turn *Turn) error {
	if err := turn.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.sessions[turn.SessionID], cloneTurn(*turn))
	if s.maxTurns > 0 && len(turns) > s.maxTurns {
		turns = append([]Turn(nil), turns[len(turns)-s.maxTurns:]...)
	}
	s.sessions[turn.SessionID] = turns
	return nil
}

func (s *MemoryStore) History(_ context.Context, sessionID string) ([]Turn, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, ok := s.sessions[sessionID]
	if !ok || len(turns) == 0 {
		return nil, ErrSessionNotFound
	}
	out := make([]Turn, 0, len(turns))
	for _, t := range turns {
		out = append(out, cloneTurn(t))
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func cloneTurn(t Turn) Turn {
	t.Evidence = append([]string(nil), t.Evidence...)
	t.Errors = append([]string(nil), t.Errors...)
	return t
}
