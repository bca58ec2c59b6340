package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/osa030/muse/internal/domain/action"
	"github.com/osa030/muse/internal/domain/playlist"
	"github.com/osa030/muse/internal/infra/config"
)

func (d *Dispatcher) addToFavorites(ctx context.Context) (Result, error) {
	snap, ok := d.current()
	if !ok || !snap.HasTrack() {
		return d.note(config.MsgNothingPlaying), nil
	}
	if err := d.library.SaveTrack(ctx, snap.TrackURI); err != nil {
		return Result{}, err
	}
	return Result{Notes: []string{fmt.Sprintf("Added %q to your Liked Songs.", snap.TrackName)}}, nil
}

func (d *Dispatcher) getPlaylists(ctx context.Context) (Result, error) {
	lists, err := d.library.Playlists(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(lists) == 0 {
		return d.note(config.MsgNoPlaylists), nil
	}
	return Result{
		Notes: []string{"Your playlists: " + strings.Join(playlist.Names(lists), ", ") + "."},
		React: true,
	}, nil
}

func (d *Dispatcher) addToPlaylist(ctx context.Context, c *action.AddToPlaylist) (Result, error) {
	snap, ok := d.current()
	if !ok || !snap.HasTrack() {
		return d.note(config.MsgNothingPlaying), nil
	}

	lists, err := d.library.Playlists(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(lists) == 0 {
		return d.note(config.MsgNoPlaylists), nil
	}

	idx, suggestions := MatchName(c.Playlist, playlist.Names(lists))
	if idx < 0 {
		return Result{Notes: []string{didYouMean(d.cfg.GetMessage(config.MsgPlaylistNotFound), suggestions)}}, nil
	}

	target := lists[idx]
	if err := d.library.AddToPlaylist(ctx, target.ID, snap.TrackURI); err != nil {
		return Result{}, err
	}
	return Result{Notes: []string{fmt.Sprintf("Added %q to %s.", snap.TrackName, target.Name)}}, nil
}

func (d *Dispatcher) listDevices(ctx context.Context) (Result, error) {
	devices, err := d.player.Devices(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(devices) == 0 {
		return d.note(config.MsgNoDevices), nil
	}

	parts := make([]string, len(devices))
	for i, dev := range devices {
		desc := dev.Name
		switch {
		case dev.Type != "" && dev.Active:
			desc += fmt.Sprintf(" (%s, active)", dev.Type)
		case dev.Type != "":
			desc += fmt.Sprintf(" (%s)", dev.Type)
		case dev.Active:
			desc += " (active)"
		}
		parts[i] = desc
	}
	return Result{
		Notes: []string{"Available devices: " + strings.Join(parts, ", ") + "."},
		React: true,
	}, nil
}

func (d *Dispatcher) transfer(ctx context.Context, c *action.TransferToDevice) (Result, error) {
	devices, err := d.player.Devices(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(devices) == 0 {
		return d.note(config.MsgNoDevices), nil
	}

	names := make([]string, len(devices))
	for i, dev := range devices {
		names[i] = dev.Name
	}
	idx, suggestions := MatchName(c.Device, names)
	if idx < 0 {
		return Result{Notes: []string{didYouMean(d.cfg.GetMessage(config.MsgDeviceNotFound), suggestions)}}, nil
	}

	target := devices[idx]
	if err := d.player.Transfer(ctx, target.ID); err != nil {
		return Result{}, err
	}
	return Result{Notes: []string{fmt.Sprintf("Playback moved to %s.", target.Name)}}, nil
}
