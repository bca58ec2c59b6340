// Package snapshot provides the PlaybackSnapshot value read from the player.
package snapshot

import (
	"fmt"
	"strings"
)

// Snapshot is an immutable point-in-time read of the active player.
// When DeviceActive is false every other field may be empty.
type Snapshot struct {
	DeviceActive  bool
	DeviceID      string
	DeviceName    string
	IsPlaying     bool
	TrackID       string
	TrackURI      string
	TrackName     string
	Artists       []string
	AlbumName     string
	ReleaseYear   string
	ProgressMs    *int
	DurationMs    *int
	VolumePercent *int
	Shuffle       bool
	Repeat        string
}

// HasTrack reports whether a current track is known.
func (s Snapshot) HasTrack() bool {
	return s.TrackID != "" && s.DurationMs != nil
}

// Progress returns the progress in milliseconds, or 0 when unknown.
func (s Snapshot) Progress() int {
	if s.ProgressMs == nil {
		return 0
	}
	return *s.ProgressMs
}

// Duration returns the track duration in milliseconds, or 0 when unknown.
func (s Snapshot) Duration() int {
	if s.DurationMs == nil {
		return 0
	}
	return *s.DurationMs
}

// Volume returns the volume percent and whether it is known.
func (s Snapshot) Volume() (int, bool) {
	if s.VolumePercent == nil {
		return 0, false
	}
	return *s.VolumePercent, true
}

// ArtistList returns the artist names joined for display.
func (s Snapshot) ArtistList() string {
	return strings.Join(s.Artists, ", ")
}

// ContextString describes the current track for the conversational agent.
func (s Snapshot) ContextString() string {
	if !s.HasTrack() {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Currently playing %q", s.TrackName)
	if len(s.Artists) > 0 {
		fmt.Fprintf(&b, " by %s", s.ArtistList())
	}
	if s.AlbumName != "" {
		fmt.Fprintf(&b, " from the album %q", s.AlbumName)
		if s.ReleaseYear != "" {
			fmt.Fprintf(&b, " (%s)", s.ReleaseYear)
		}
	}
	fmt.Fprintf(&b, ". Position %s of %s.", FormatClock(s.Progress()), FormatClock(s.Duration()))
	if v, ok := s.Volume(); ok {
		fmt.Fprintf(&b, " Volume %d%%.", v)
	}
	return b.String()
}

// FormatClock formats milliseconds as m:ss, or h:mm:ss for an hour or more.
func FormatClock(ms int) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

// Int returns a pointer to v. Convenience for building snapshots.
func Int(v int) *int {
	return &v
}
