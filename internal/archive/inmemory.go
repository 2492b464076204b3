package archive

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore keeps archived utterances in process memory, grouped by
// session. It backs local runs and tests where no database is around.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string][]Record)}
}

func (s *InMemoryStore) SaveUtterance(_ context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[rec.SessionID] = append(s.sessions[rec.SessionID], rec)
	return nil
}

// RecentBySession returns up to limit utterances for the session in
// chronological order, newest last.
func (s *InMemoryStore) RecentBySession(_ context.Context, sessionID string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.sessions[sessionID]
	if limit > 0 && len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}

	out := make([]Record, len(recs))
	copy(out, recs)
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
