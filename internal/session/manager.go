package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID                string    `json:"session_id"`
	ClientID          string    `json:"client_id"`
	Status            Status    `json:"status"`
	RemoteAddr        string    `json:"remote_addr"`
	ActiveTurnID      string    `json:"active_turn_id"`
	TurnCount         int       `json:"turn_count"`
	InterruptionCount int       `json:"interruption_count"`
	StartedAt         time.Time `json:"started_at"`
	LastActivityAt    time.Time `json:"last_activity_at"`
}

type Manager struct {
	mu                sync.RWMutex
	sessions          map[string]*Session
	inactivityTimeout time.Duration
	onExpire          func(*Session)
}

func NewManager(inactivityTimeout time.Duration) *Manager {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 2 * time.Minute
	}
	return &Manager{
		sessions:          make(map[string]*Session),
		inactivityTimeout: inactivityTimeout,
	}
}

func (m *Manager) SetExpireHook(hook func(*Session)) {
	m.mu.Lock()
	m.onExpire = hook
	m.mu.Unlock()
}

func (m *Manager) Create(clientID, remoteAddr string) *Session {
	now := time.Now().UTC()
	s := &Session{
		ID:             uuid.NewString(),
		ClientID:       clientID,
		RemoteAddr:     remoteAddr,
		Status:         StatusActive,
		StartedAt:      now,
		LastActivityAt: now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return clone(s)
}

func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

// List returns all known sessions ordered by start time, oldest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, clone(s))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

func (m *Manager) Touch(sessionID string) error {
	_, err := m.update(sessionID, func(*Session) {})
	return err
}

func (m *Manager) StartTurn(sessionID, turnID string) error {
	_, err := m.update(sessionID, func(s *Session) {
		s.ActiveTurnID = turnID
		s.TurnCount++
	})
	return err
}

func (m *Manager) EndTurn(sessionID string) error {
	_, err := m.update(sessionID, func(s *Session) {
		s.ActiveTurnID = ""
	})
	return err
}

func (m *Manager) Interrupt(sessionID string) error {
	_, err := m.update(sessionID, func(s *Session) {
		s.InterruptionCount++
		s.ActiveTurnID = ""
	})
	return err
}

func (m *Manager) End(sessionID string) (*Session, error) {
	return m.update(sessionID, func(s *Session) {
		s.Status = StatusEnded
		s.ActiveTurnID = ""
	})
}

// update applies fn to the live session under the write lock. Every
// successful update refreshes LastActivityAt.
func (m *Manager) update(sessionID string, fn func(*Session)) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	fn(s)
	s.LastActivityAt = time.Now().UTC()
	return clone(s), nil
}

func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive()
			}
		}
	}()
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, s := range m.sessions {
		if s.Status == StatusActive {
			count++
		}
	}
	return count
}

// expireInactive ends idle sessions and fires the expire hook outside
// the lock.
func (m *Manager) expireInactive() {
	now := time.Now().UTC()
	cutoff := now.Add(-m.inactivityTimeout)
	var expired []*Session

	m.mu.Lock()
	for _, s := range m.sessions {
		if s.Status != StatusActive || s.LastActivityAt.After(cutoff) {
			continue
		}
		s.Status = StatusEnded
		s.ActiveTurnID = ""
		s.LastActivityAt = now
		expired = append(expired, clone(s))
	}
	hook := m.onExpire
	m.mu.Unlock()

	if hook != nil {
		for _, s := range expired {
			hook(s)
		}
	}
}

func clone(s *Session) *Session {
	c := *s
	return &c
}
