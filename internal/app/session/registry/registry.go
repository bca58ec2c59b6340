// Package registry keeps the table of open listener sessions.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/osa030/muse/internal/domain/listener"
)

var ErrSessionNotFound = errors.New("session not found")

// Registry manages listener sessions with thread-safe access.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*listener.Session
	now      func() time.Time
}

// New creates a new registry.
func New() *Registry {
	return &Registry{
		sessions: make(map[string]*listener.Session),
		now:      time.Now,
	}
}

// Open adds a new session and returns its ID. A host user with an open
// session gets that session back, and created is false.
func (r *Registry) Open(displayName, externalUserID string) (id string, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check if already open (by external ID)
	if externalUserID != "" {
		for _, s := range r.sessions {
			if s.ExternalUserID == externalUserID {
				return s.ID, false
			}
		}
	}

	id = uuid.New().String()
	r.sessions[id] = listener.NewSession(id, displayName, externalUserID, r.now())
	return id, true
}

// Get returns a copy of the session.
func (r *Registry) Get(id string) (listener.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return listener.Session{}, errors.Wrapf(ErrSessionNotFound, "session %s", id)
	}
	return *s, nil
}

// RecordAction counts an action against the session.
func (r *Registry) RecordAction(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return errors.Wrapf(ErrSessionNotFound, "session %s", id)
	}
	s.RecordAction(r.now())
	return nil
}

// Remove deletes the session.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return errors.Wrapf(ErrSessionNotFound, "session %s", id)
	}
	delete(r.sessions, id)
	return nil
}

// All returns copies of all sessions, oldest first.
func (r *Registry) All() []listener.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]listener.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		result = append(result, *s)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].OpenedAt.Before(result[j].OpenedAt)
	})
	return result
}

// Count returns the number of sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
