// Package archive persists finished utterances beyond the life of their
// session. It is an opt-in sidecar: sessions behave identically without
// it, they just leave no trace.
package archive

import (
	"context"
	"time"
)

// Record is one archived utterance.
type Record struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	IsCommand bool      `json:"is_command"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists and retrieves archived utterances.
type Store interface {
	SaveUtterance(ctx context.Context, rec Record) error
	RecentBySession(ctx context.Context, sessionID string, limit int) ([]Record, error)
	Close() error
}
