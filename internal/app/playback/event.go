package playback

import (
	"context"

	"github.com/osa030/muse/internal/domain/snapshot"
)

// Notes emitted once per connection change.
const (
	NoteConnected    = "now connected"
	NoteDisconnected = "no active player found"
)

// Update is a flag/context update pushed to the host.
type Update struct {
	State   State
	Flags   []string
	Context string // empty unless playing
}

// Sink receives monitor output for a session.
type Sink interface {
	Note(sessionID, text string)
	State(sessionID string, update Update)
}

// StateSource reads the current player state.
type StateSource interface {
	PlayerSnapshot(ctx context.Context) (snapshot.Snapshot, error)
}
