// Package playback provides the playback state monitor that keeps the host
// informed of the live player state.
package playback

import (
	"time"

	"github.com/osa030/muse/internal/domain/snapshot"
)

// State represents the observed player state of a session.
type State int

const (
	StateUnknown      State = iota // No poll has completed yet
	StateDisconnected              // No active device
	StatePaused                    // Active device, not playing
	StatePlaying                   // Active device, playing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateDisconnected:
		return "disconnected"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "invalid"
	}
}

// Connected reports whether an active device is present.
func (s State) Connected() bool {
	return s == StatePaused || s == StatePlaying
}

// Flag names pushed to the host session context.
const (
	FlagConnected    = "spotify_connected"
	FlagDisconnected = "spotify_disconnected"
	FlagPlaying      = "playing"
)

// Flags returns the flag set for the state. Negated flags carry a "!" prefix.
func (s State) Flags() []string {
	if s.Connected() {
		playing := "!" + FlagPlaying
		if s == StatePlaying {
			playing = FlagPlaying
		}
		return []string{FlagConnected, "!" + FlagDisconnected, playing}
	}
	return []string{"!" + FlagConnected, FlagDisconnected, "!" + FlagPlaying}
}

// StateOf derives the state of a snapshot. A nil snapshot is StateUnknown.
func StateOf(s *snapshot.Snapshot) State {
	switch {
	case s == nil:
		return StateUnknown
	case !s.DeviceActive:
		return StateDisconnected
	case s.IsPlaying:
		return StatePlaying
	default:
		return StatePaused
	}
}

// Changes holds the transition predicates between two consecutive polls.
type Changes struct {
	First      bool
	Connection bool
	Playback   bool
	Track      bool
	Position   bool
	Volume     bool
}

// Any reports whether an update must be emitted.
func (c Changes) Any() bool {
	return c.First || c.Connection || c.Playback || c.Track || c.Position || c.Volume
}

// Diff compares the previous snapshot (nil on the first poll) with the
// current one, taken elapsed later. Position only counts as changed for the
// same track when the progress is more than thresholdMs away from where it
// should be: the previous progress, advanced by elapsed while playing.
func Diff(prev *snapshot.Snapshot, curr snapshot.Snapshot, elapsed time.Duration, thresholdMs int) Changes {
	if prev == nil {
		return Changes{First: true, Connection: true}
	}

	c := Changes{
		Connection: prev.DeviceActive != curr.DeviceActive,
		Track:      prev.TrackID != curr.TrackID,
		Volume:     !sameInt(prev.VolumePercent, curr.VolumePercent),
	}
	if curr.DeviceActive && !c.Connection {
		c.Playback = prev.IsPlaying != curr.IsPlaying
	}
	if !c.Track {
		switch {
		case prev.ProgressMs == nil && curr.ProgressMs == nil:
		case prev.ProgressMs == nil || curr.ProgressMs == nil:
			c.Position = true
		default:
			expected := *prev.ProgressMs
			if prev.IsPlaying && curr.IsPlaying && elapsed > 0 {
				expected += int(elapsed.Milliseconds())
			}
			c.Position = abs(*curr.ProgressMs-expected) > thresholdMs
		}
	}
	return c
}

func sameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
