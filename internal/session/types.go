package session

import "time"

// ListResponse is the payload of the session listing endpoint.
type ListResponse struct {
	GeneratedAt time.Time  `json:"generated_at"`
	ActiveCount int        `json:"active_count"`
	Sessions    []*Session `json:"sessions"`
}
