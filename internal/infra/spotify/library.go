package spotify

import (
	"context"
	"math/rand"

	"github.com/zmb3/spotify/v2"

	"github.com/osa030/muse/internal/domain/catalog"
	"github.com/osa030/muse/internal/domain/playlist"
	"github.com/osa030/muse/internal/domain/track"
)

const (
	playlistPageSize = 50
	maxPlaylistPages = 4
	itemPageSize     = 100
	savedPageSize    = 50
)

// CurrentProfile fetches the authenticated user's id and country.
func (c *Client) CurrentProfile(ctx context.Context) (catalog.Profile, error) {
	var user *spotify.PrivateUser
	err := c.do(ctx, "get current user", func() error {
		u, err := c.client.CurrentUser(ctx)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return catalog.Profile{}, err
	}
	return catalog.Profile{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Market:      user.Country,
	}, nil
}

// Playlists lists the current user's playlists.
func (c *Client) Playlists(ctx context.Context) ([]playlist.Playlist, error) {
	var lists []playlist.Playlist
	for page := 0; page < maxPlaylistPages; page++ {
		var p *spotify.SimplePlaylistPage
		err := c.do(ctx, "list playlists", func() error {
			r, err := c.client.CurrentUsersPlaylists(ctx,
				spotify.Limit(playlistPageSize),
				spotify.Offset(page*playlistPageSize),
			)
			if err != nil {
				return err
			}
			p = r
			return nil
		})
		if err != nil {
			return nil, err
		}

		for i := range p.Playlists {
			lists = append(lists, convertPlaylist(&p.Playlists[i]))
		}
		if len(p.Playlists) < playlistPageSize {
			break
		}
	}
	return lists, nil
}

// AddToPlaylist adds a track to a playlist.
// trackURI and playlistID can be Spotify IDs, URLs, or URIs.
func (c *Client) AddToPlaylist(ctx context.Context, playlistID, trackURI string) error {
	pid := spotify.ID(extractPlaylistID(playlistID))
	tid := spotify.ID(extractTrackID(trackURI))
	return c.do(ctx, "add track to playlist", func() error {
		_, err := c.client.AddTracksToPlaylist(ctx, pid, tid)
		return err
	})
}

// SaveTrack adds a track to the user's liked songs.
func (c *Client) SaveTrack(ctx context.Context, trackURI string) error {
	id := spotify.ID(extractTrackID(trackURI))
	return c.do(ctx, "save track", func() error {
		return c.client.AddTracksToLibrary(ctx, id)
	})
}

// PlaylistTracksRandom returns up to count tracks from a random page of a playlist.
func (c *Client) PlaylistTracksRandom(ctx context.Context, playlistURL string, count int) ([]track.Track, error) {
	id := spotify.ID(extractPlaylistID(playlistURL))

	fetch := func(limit, offset int) (*spotify.PlaylistItemPage, error) {
		var page *spotify.PlaylistItemPage
		err := c.do(ctx, "get playlist items", func() error {
			opts := append([]spotify.RequestOption{spotify.Limit(limit), spotify.Offset(offset)}, marketOpts(c.market)...)
			p, err := c.client.GetPlaylistItems(ctx, id, opts...)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		return page, err
	}

	// First, get the total track count
	first, err := fetch(1, 0)
	if err != nil {
		return nil, err
	}
	total := int(first.Total)
	if total == 0 {
		return nil, nil
	}

	page, err := fetch(itemPageSize, randomOffset(total, itemPageSize))
	if err != nil {
		return nil, err
	}

	var tracks []track.Track
	for _, item := range page.Items {
		// Only tracks, not episodes
		if item.Track.Track != nil && item.Track.Track.ID != "" {
			tracks = append(tracks, convertTrack(item.Track.Track))
		}
	}
	return sample(tracks, count), nil
}

// SavedTracksRandom returns up to count tracks from a random page of the
// user's liked songs.
func (c *Client) SavedTracksRandom(ctx context.Context, count int) ([]track.Track, error) {
	fetch := func(limit, offset int) (*spotify.SavedTrackPage, error) {
		var page *spotify.SavedTrackPage
		err := c.do(ctx, "get saved tracks", func() error {
			opts := append([]spotify.RequestOption{spotify.Limit(limit), spotify.Offset(offset)}, marketOpts(c.market)...)
			p, err := c.client.CurrentUsersTracks(ctx, opts...)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		return page, err
	}

	first, err := fetch(1, 0)
	if err != nil {
		return nil, err
	}
	total := int(first.Total)
	if total == 0 {
		return nil, nil
	}

	page, err := fetch(savedPageSize, randomOffset(total, savedPageSize))
	if err != nil {
		return nil, err
	}

	tracks := make([]track.Track, 0, len(page.Tracks))
	for i := range page.Tracks {
		tracks = append(tracks, convertTrack(&page.Tracks[i].FullTrack))
	}
	return sample(tracks, count), nil
}

// randomOffset picks a page offset so that a full page can still be read.
func randomOffset(total, limit int) int {
	maxOffset := total - limit
	if maxOffset <= 0 {
		return 0
	}
	return rand.Intn(maxOffset + 1)
}

// sample shuffles tracks and keeps at most count of them.
func sample(tracks []track.Track, count int) []track.Track {
	rand.Shuffle(len(tracks), func(i, j int) {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	})
	if count > 0 && len(tracks) > count {
		tracks = tracks[:count]
	}
	return tracks
}

// CheckPlaylistExists fetches only the playlist id to confirm it is reachable.
func (c *Client) CheckPlaylistExists(ctx context.Context, playlistURL string) error {
	id := spotify.ID(extractPlaylistID(playlistURL))
	return c.do(ctx, "get playlist", func() error {
		_, err := c.client.GetPlaylist(ctx, id, spotify.Fields("id"))
		return err
	})
}
