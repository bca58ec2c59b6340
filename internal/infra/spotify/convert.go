package spotify

import (
	"strings"
	"time"

	"github.com/zmb3/spotify/v2"

	"github.com/osa030/muse/internal/domain/catalog"
	"github.com/osa030/muse/internal/domain/playlist"
	"github.com/osa030/muse/internal/domain/snapshot"
	"github.com/osa030/muse/internal/domain/track"
)

// convertTrack converts a Spotify FullTrack to domain Track.
func convertTrack(t *spotify.FullTrack) track.Track {
	return track.Track{
		ID:         string(t.ID),
		URI:        string(t.URI),
		Name:       t.Name,
		Artists:    artistNames(t.Artists),
		Album:      t.Album.Name,
		Duration:   time.Duration(t.Duration) * time.Millisecond,
		Popularity: int(t.Popularity),
		Explicit:   t.Explicit,
		Markets:    markets(t.AvailableMarkets),
		IsPlayable: t.IsPlayable,
	}
}

func convertAlbum(a *spotify.SimpleAlbum) catalog.Album {
	return catalog.Album{
		URI:         string(a.URI),
		Name:        a.Name,
		Artists:     artistNames(a.Artists),
		ReleaseDate: a.ReleaseDate,
		Markets:     markets(a.AvailableMarkets),
	}
}

func convertPlaylist(p *spotify.SimplePlaylist) playlist.Playlist {
	return playlist.Playlist{
		ID:         string(p.ID),
		URI:        string(p.URI),
		Name:       p.Name,
		OwnerID:    p.Owner.ID,
		OwnerName:  p.Owner.DisplayName,
		TrackCount: int(p.Tracks.Total),
	}
}

func convertDevice(d *spotify.PlayerDevice) catalog.Device {
	return catalog.Device{
		ID:     string(d.ID),
		Name:   d.Name,
		Type:   d.Type,
		Active: d.Active,
		Volume: int(d.Volume),
	}
}

// convertState converts the player state into a snapshot. A nil state, as
// returned when no device is active, yields an empty snapshot.
func convertState(s *spotify.PlayerState) snapshot.Snapshot {
	if s == nil || !s.Device.Active {
		return snapshot.Snapshot{}
	}

	snap := snapshot.Snapshot{
		DeviceActive:  true,
		DeviceID:      string(s.Device.ID),
		DeviceName:    s.Device.Name,
		IsPlaying:     s.Playing,
		VolumePercent: snapshot.Int(int(s.Device.Volume)),
		Shuffle:       s.ShuffleState,
		Repeat:        s.RepeatState,
	}
	if s.Item != nil && s.Item.ID != "" {
		snap.TrackID = string(s.Item.ID)
		snap.TrackURI = string(s.Item.URI)
		snap.TrackName = s.Item.Name
		snap.Artists = artistNames(s.Item.Artists)
		snap.AlbumName = s.Item.Album.Name
		snap.ReleaseYear = releaseYear(s.Item.Album.ReleaseDate)
		snap.ProgressMs = snapshot.Int(int(s.Progress))
		snap.DurationMs = snapshot.Int(int(s.Item.Duration))
	}
	return snap
}

func artistNames(artists []spotify.SimpleArtist) []string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return names
}

func markets(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	result := make([]string, len(codes))
	for i, m := range codes {
		result[i] = string(m)
	}
	return result
}

// releaseYear returns the year of a YYYY[-MM[-DD]] release date.
func releaseYear(date string) string {
	year, _, _ := strings.Cut(date, "-")
	if len(year) != 4 {
		return ""
	}
	return year
}
