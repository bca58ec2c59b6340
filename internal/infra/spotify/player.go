package spotify

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"

	"github.com/osa030/muse/internal/domain/candidate"
	"github.com/osa030/muse/internal/domain/catalog"
	"github.com/osa030/muse/internal/domain/snapshot"
)

// PlayerSnapshot reads the current playback state.
func (c *Client) PlayerSnapshot(ctx context.Context) (snapshot.Snapshot, error) {
	var state *spotify.PlayerState
	err := c.do(ctx, "get player state", func() error {
		s, err := c.client.PlayerState(ctx, marketOpts(c.market)...)
		if err != nil {
			return err
		}
		state = s
		return nil
	})
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	return convertState(state), nil
}

// Play starts uri. Albums, artists, playlists and shows are played as a
// context; tracks and episodes replace the current context.
func (c *Client) Play(ctx context.Context, uri string, typ candidate.Type) error {
	opts := &spotify.PlayOptions{}
	u := spotify.URI(uri)
	if typ.IsContext() {
		opts.PlaybackContext = &u
	} else {
		opts.URIs = []spotify.URI{u}
	}
	return c.do(ctx, "play", func() error {
		return c.client.PlayOpt(ctx, opts)
	})
}

// PlayTracks replaces the current context with the given track URIs.
func (c *Client) PlayTracks(ctx context.Context, uris []string) error {
	if len(uris) == 0 {
		return errors.New("no tracks to play")
	}
	opts := &spotify.PlayOptions{URIs: make([]spotify.URI, len(uris))}
	for i, u := range uris {
		opts.URIs[i] = spotify.URI(u)
	}
	return c.do(ctx, "play tracks", func() error {
		return c.client.PlayOpt(ctx, opts)
	})
}

// Resume resumes playback of the current context.
func (c *Client) Resume(ctx context.Context) error {
	return c.do(ctx, "resume", func() error {
		return c.client.Play(ctx)
	})
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context) error {
	return c.do(ctx, "pause", func() error {
		return c.client.Pause(ctx)
	})
}

// Next skips to the next item.
func (c *Client) Next(ctx context.Context) error {
	return c.do(ctx, "skip to next", func() error {
		return c.client.Next(ctx)
	})
}

// Previous skips to the previous item.
func (c *Client) Previous(ctx context.Context) error {
	return c.do(ctx, "skip to previous", func() error {
		return c.client.Previous(ctx)
	})
}

// Seek moves the position of the current item.
func (c *Client) Seek(ctx context.Context, positionMs int) error {
	return c.do(ctx, "seek", func() error {
		return c.client.Seek(ctx, positionMs)
	})
}

// SetVolume sets the volume of the active device.
func (c *Client) SetVolume(ctx context.Context, percent int) error {
	return c.do(ctx, "set volume", func() error {
		return c.client.Volume(ctx, percent)
	})
}

// SetRepeat sets the repeat mode: track, context or off.
func (c *Client) SetRepeat(ctx context.Context, mode string) error {
	return c.do(ctx, "set repeat mode", func() error {
		return c.client.Repeat(ctx, mode)
	})
}

// SetShuffle toggles shuffle.
func (c *Client) SetShuffle(ctx context.Context, on bool) error {
	return c.do(ctx, "set shuffle", func() error {
		return c.client.Shuffle(ctx, on)
	})
}

// Queue appends a track to the user's queue.
func (c *Client) Queue(ctx context.Context, trackURI string) error {
	id := spotify.ID(extractTrackID(trackURI))
	return c.do(ctx, "queue track", func() error {
		return c.client.QueueSong(ctx, id)
	})
}

// Devices lists the user's available devices.
func (c *Client) Devices(ctx context.Context) ([]catalog.Device, error) {
	var devices []spotify.PlayerDevice
	err := c.do(ctx, "list devices", func() error {
		d, err := c.client.PlayerDevices(ctx)
		if err != nil {
			return err
		}
		devices = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make([]catalog.Device, len(devices))
	for i := range devices {
		result[i] = convertDevice(&devices[i])
	}
	return result, nil
}

// Transfer moves playback to deviceID and keeps it playing.
func (c *Client) Transfer(ctx context.Context, deviceID string) error {
	return c.do(ctx, "transfer playback", func() error {
		return c.client.TransferPlayback(ctx, spotify.ID(deviceID), true)
	})
}
