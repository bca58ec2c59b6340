// Package listener provides the listener session entity: one host user
// for whom playback is resolved and monitored.
package listener

import "time"

// Session represents a listener's session.
type Session struct {
	ID             string     // UUID
	DisplayName    string     // Display name
	ExternalUserID string     // Host user ID (optional)
	OpenedAt       time.Time  // Open time
	TotalActions   int        // Dispatched action count
	LastActionAt   *time.Time // Last dispatched action time
}

// NewSession creates a new listener session.
func NewSession(id, displayName, externalUserID string, now time.Time) *Session {
	return &Session{
		ID:             id,
		DisplayName:    displayName,
		ExternalUserID: externalUserID,
		OpenedAt:       now,
	}
}

// RecordAction counts one dispatched action.
func (s *Session) RecordAction(now time.Time) {
	s.TotalActions++
	s.LastActionAt = &now
}

// Idle returns how long the session has had no action.
func (s *Session) Idle(now time.Time) time.Duration {
	last := s.OpenedAt
	if s.LastActionAt != nil {
		last = *s.LastActionAt
	}
	return now.Sub(last)
}
