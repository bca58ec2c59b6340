package dispatch

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/muse/internal/app/bgm"
	"github.com/osa030/muse/internal/app/coordinator"
	"github.com/osa030/muse/internal/domain/action"
	"github.com/osa030/muse/internal/domain/candidate"
	"github.com/osa030/muse/internal/domain/snapshot"
	"github.com/osa030/muse/internal/domain/track"
	"github.com/osa030/muse/internal/infra/config"
)

// likedSongsCount is the number of liked songs started by the liked-songs keywords.
const likedSongsCount = 50

var likedKeywords = map[string]bool{
	"liked songs": true,
	"liked":       true,
	"favorites":   true,
	"favourites":  true,
	"saved":       true,
}

func (d *Dispatcher) togglePlayback(ctx context.Context) (Result, error) {
	snap, ok := d.current()
	if !ok {
		return d.note(config.MsgNoActiveDevice), nil
	}
	if snap.IsPlaying {
		return d.ack(d.player.Pause(ctx), "Paused.")
	}
	return d.ack(d.player.Resume(ctx), "Resumed.")
}

func (d *Dispatcher) playMusic(ctx context.Context, c *action.PlayMusic) (Result, error) {
	res, err := d.resolver.Resolve(ctx, c.Name, c.Type, c.Type)
	if err != nil {
		return Result{}, err
	}
	return d.start(ctx, res)
}

func (d *Dispatcher) queueTrack(ctx context.Context, c *action.QueueTrack) (Result, error) {
	if c.Type != string(candidate.TypeTrack) {
		return d.note(config.MsgQueueNonTrack), nil
	}
	res, err := d.resolver.Resolve(ctx, c.Name, c.Type, c.Type)
	if err != nil {
		return Result{}, err
	}
	if res.Type != candidate.TypeTrack {
		return d.note(config.MsgQueueNonTrack), nil
	}
	if err := d.player.Queue(ctx, res.URI); err != nil {
		return Result{}, err
	}
	return Result{Notes: []string{fmt.Sprintf("Added %s to the queue.", res.FriendlyName)}}, nil
}

func (d *Dispatcher) playRandom(ctx context.Context) (Result, error) {
	var seeds []track.Track
	if snap, ok := d.current(); ok && snap.HasTrack() {
		seeds = append(seeds, track.Track{
			ID:      snap.TrackID,
			URI:     snap.TrackURI,
			Name:    snap.TrackName,
			Artists: snap.Artists,
			Album:   snap.AlbumName,
		})
	}

	var picked []bgm.CandidateWithSource
	if d.random != nil {
		cands, err := d.random.GetCandidates(ctx, d.cfg.Random.CandidateCount, seeds, d.resolver.History().Set())
		if err != nil {
			return Result{}, err
		}
		picked = cands
	} else {
		tracks, err := d.library.SavedTracksRandom(ctx, d.cfg.Random.CandidateCount)
		if err != nil {
			return Result{}, err
		}
		for _, t := range tracks {
			picked = append(picked, bgm.CandidateWithSource{Track: t, DisplayName: "Liked Songs"})
		}
	}
	if len(picked) == 0 {
		return d.note(config.MsgRandomFailed), nil
	}

	uris := make([]string, len(picked))
	for i, c := range picked {
		uris[i] = c.Track.URI
	}
	if err := d.player.PlayTracks(ctx, uris); err != nil {
		return Result{}, err
	}
	d.resolver.Record(uris[0])

	first := picked[0]
	return Result{
		Notes: []string{fmt.Sprintf("Now playing %s (from %s).", first.Track.FriendlyName(), first.DisplayName)},
		React: true,
	}, nil
}

// playSpecial tries the configured special playlists, then the liked-songs
// keywords, then an official playlist search.
func (d *Dispatcher) playSpecial(ctx context.Context, c *action.PlaySpecialPlaylist) (Result, error) {
	names := make([]string, 0, len(d.cfg.SpecialPlaylists))
	for name := range d.cfg.SpecialPlaylists {
		names = append(names, name)
	}
	sort.Strings(names)

	if idx, _ := MatchName(c.Name, names); idx >= 0 {
		name := names[idx]
		return d.start(ctx, coordinator.Resolution{
			URI:          d.cfg.SpecialPlaylists[name],
			FriendlyName: fmt.Sprintf("%s: %s", candidate.TypePlaylist.Label(), name),
			Type:         candidate.TypePlaylist,
		})
	}

	if likedKeywords[strings.ToLower(coordinator.Clean(c.Name))] {
		tracks, err := d.library.SavedTracksRandom(ctx, likedSongsCount)
		if err != nil {
			return Result{}, err
		}
		if len(tracks) == 0 {
			return d.note(config.MsgNoMatch), nil
		}
		uris := make([]string, len(tracks))
		for i, t := range tracks {
			uris[i] = t.URI
		}
		if err := d.player.PlayTracks(ctx, uris); err != nil {
			return Result{}, err
		}
		d.resolver.Record(uris[0])
		return Result{Notes: []string{"Now playing your Liked Songs."}, React: true}, nil
	}

	res, err := d.resolver.Resolve(ctx, c.Name, coordinator.TypeGenre, coordinator.TypeGenre)
	if err != nil {
		return Result{}, err
	}
	return d.start(ctx, res)
}

// start plays a resolved entity and records it in the history.
func (d *Dispatcher) start(ctx context.Context, res coordinator.Resolution) (Result, error) {
	if err := d.player.Play(ctx, res.URI, res.Type); err != nil {
		return Result{}, errors.Wrapf(err, "failed to play %s", res.URI)
	}
	d.resolver.Record(res.URI)
	return Result{
		Notes: []string{fmt.Sprintf("Now playing %s.", res.FriendlyName)},
		React: true,
	}, nil
}

func (d *Dispatcher) volume(ctx context.Context, c *action.Volume) (Result, error) {
	snap, ok := d.current()
	if !ok {
		return d.note(config.MsgNoActiveDevice), nil
	}

	amount := c.Amount()
	if c.Value == nil && c.Mode != action.VolumeSet {
		amount = d.cfg.Dispatch.VolumeStep
	}
	target := ApplyVolume(snap.VolumePercent, c.Mode, amount)
	return d.ack(d.player.SetVolume(ctx, target), fmt.Sprintf("Volume set to %d%%.", target))
}

func (d *Dispatcher) seek(ctx context.Context, c *action.Seek) (Result, error) {
	snap, ok := d.current()
	if !ok || !snap.HasTrack() {
		return d.note(config.MsgNothingPlaying), nil
	}

	amount := c.Amount()
	if c.Value == nil && (c.Target == action.SeekForward || c.Target == action.SeekBackward) {
		amount = float64(d.cfg.Dispatch.SeekStepSec)
	}
	pos := ApplySeek(snap.Progress(), snap.Duration(), c.Target, amount)
	return d.ack(d.player.Seek(ctx, pos), fmt.Sprintf("Moved to %s.", snapshot.FormatClock(pos)))
}
