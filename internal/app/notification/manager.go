// Package notification fans out session notes and state updates to subscribers.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/muse/internal/app/playback"
)

// Kind distinguishes notes from state updates.
type Kind string

const (
	KindNote   Kind = "note"
	KindState  Kind = "state"
	KindClosed Kind = "closed" // the session ended; no more notifications follow
)

// Notification is one message pushed to the host.
type Notification struct {
	SequenceNo uint64   `json:"sequence_no"`
	SessionID  string   `json:"session_id"`
	Kind       Kind     `json:"kind"`
	Note       string   `json:"note,omitempty"`
	React      bool     `json:"react,omitempty"` // the agent may respond to the note
	State      string   `json:"state,omitempty"`
	Flags      []string `json:"flags,omitempty"`
	Context    string   `json:"context,omitempty"`
}

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*Notification) error
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id        string
	sessionID string // empty receives every session
	stream    Stream
}

const sendTimeout = 500 * time.Millisecond

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe adds a subscription for sessionID, or for all sessions when
// sessionID is empty, and returns the subscription ID.
func (m *Manager) Subscribe(sessionID string, stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:        id,
		sessionID: sessionID,
		stream:    stream,
	}
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// Note implements playback.Sink.
func (m *Manager) Note(sessionID, text string) {
	m.Broadcast(&Notification{SessionID: sessionID, Kind: KindNote, Note: text})
}

// State implements playback.Sink.
func (m *Manager) State(sessionID string, update playback.Update) {
	m.Broadcast(&Notification{
		SessionID: sessionID,
		Kind:      KindState,
		State:     update.State.String(),
		Flags:     update.Flags,
		Context:   update.Context,
	})
}

// Closed announces that a session ended.
func (m *Manager) Closed(sessionID string) {
	m.Broadcast(&Notification{SessionID: sessionID, Kind: KindClosed})
}

// Notes broadcasts handler notes. Only the last one carries react.
func (m *Manager) Notes(sessionID string, notes []string, react bool) {
	for i, text := range notes {
		m.Broadcast(&Notification{
			SessionID: sessionID,
			Kind:      KindNote,
			Note:      text,
			React:     react && i == len(notes)-1,
		})
	}
}

// Broadcast assigns the next sequence number and sends n to every matching
// subscriber. Each send is bounded by a timeout so a slow stream cannot block.
func (m *Manager) Broadcast(n *Notification) {
	m.sequenceNoMu.Lock()
	m.sequenceNo++
	n.SequenceNo = m.sequenceNo
	m.sequenceNoMu.Unlock()

	m.mu.RLock()
	// Copy subscriptions to avoid holding lock during sends
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		if sub.sessionID == "" || sub.sessionID == n.SessionID {
			subs = append(subs, sub)
		}
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(n)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Msgf("notification: send failed: subscription=%s error=%v", s.id, err)
				}
			case <-ctx.Done():
				zlog.Debug().Msgf("notification: send timed out: subscription=%s", s.id)
			}
		}(sub)
	}
	wg.Wait()
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
