package spotify

import (
	"context"

	"github.com/zmb3/spotify/v2"

	"github.com/osa030/muse/internal/app/search"
	"github.com/osa030/muse/internal/domain/catalog"
	"github.com/osa030/muse/internal/domain/playlist"
	"github.com/osa030/muse/internal/domain/track"
)

const maxSearchLimit = 50

func (c *Client) search(ctx context.Context, q search.Query, st spotify.SearchType) (*spotify.SearchResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = search.DefaultLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	market := q.Market
	if c.market != "" {
		market = c.market
	}

	opts := append([]spotify.RequestOption{spotify.Limit(limit)}, marketOpts(market)...)

	var result *spotify.SearchResult
	err := c.do(ctx, "search", func() error {
		r, err := c.client.Search(ctx, q.Text, st, opts...)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}

// SearchTracks searches the track category.
func (c *Client) SearchTracks(ctx context.Context, q search.Query) ([]track.Track, error) {
	res, err := c.search(ctx, q, spotify.SearchTypeTrack)
	if err != nil || res.Tracks == nil {
		return nil, err
	}
	tracks := make([]track.Track, 0, len(res.Tracks.Tracks))
	for i := range res.Tracks.Tracks {
		tracks = append(tracks, convertTrack(&res.Tracks.Tracks[i]))
	}
	return tracks, nil
}

// SearchAlbums searches the album category.
func (c *Client) SearchAlbums(ctx context.Context, q search.Query) ([]catalog.Album, error) {
	res, err := c.search(ctx, q, spotify.SearchTypeAlbum)
	if err != nil || res.Albums == nil {
		return nil, err
	}
	albums := make([]catalog.Album, 0, len(res.Albums.Albums))
	for i := range res.Albums.Albums {
		albums = append(albums, convertAlbum(&res.Albums.Albums[i]))
	}
	return albums, nil
}

// SearchArtists searches the artist category.
func (c *Client) SearchArtists(ctx context.Context, q search.Query) ([]catalog.Artist, error) {
	res, err := c.search(ctx, q, spotify.SearchTypeArtist)
	if err != nil || res.Artists == nil {
		return nil, err
	}
	artists := make([]catalog.Artist, 0, len(res.Artists.Artists))
	for _, a := range res.Artists.Artists {
		artists = append(artists, catalog.Artist{
			URI:        string(a.URI),
			Name:       a.Name,
			Popularity: int(a.Popularity),
		})
	}
	return artists, nil
}

// SearchPlaylists searches the playlist category.
func (c *Client) SearchPlaylists(ctx context.Context, q search.Query) ([]playlist.Playlist, error) {
	res, err := c.search(ctx, q, spotify.SearchTypePlaylist)
	if err != nil || res.Playlists == nil {
		return nil, err
	}
	lists := make([]playlist.Playlist, 0, len(res.Playlists.Playlists))
	for i := range res.Playlists.Playlists {
		lists = append(lists, convertPlaylist(&res.Playlists.Playlists[i]))
	}
	return lists, nil
}

// SearchShows searches the podcast show category.
func (c *Client) SearchShows(ctx context.Context, q search.Query) ([]catalog.Show, error) {
	res, err := c.search(ctx, q, spotify.SearchTypeShow)
	if err != nil || res.Shows == nil {
		return nil, err
	}
	shows := make([]catalog.Show, 0, len(res.Shows.Shows))
	for _, s := range res.Shows.Shows {
		shows = append(shows, catalog.Show{
			URI:       string(s.URI),
			Name:      s.Name,
			Publisher: s.Publisher,
			Markets:   markets(s.AvailableMarkets),
		})
	}
	return shows, nil
}

// SearchEpisodes searches the podcast episode category.
func (c *Client) SearchEpisodes(ctx context.Context, q search.Query) ([]catalog.Episode, error) {
	res, err := c.search(ctx, q, spotify.SearchTypeEpisode)
	if err != nil || res.Episodes == nil {
		return nil, err
	}
	episodes := make([]catalog.Episode, 0, len(res.Episodes.Episodes))
	for _, e := range res.Episodes.Episodes {
		episodes = append(episodes, catalog.Episode{URI: string(e.URI), Name: e.Name})
	}
	return episodes, nil
}
