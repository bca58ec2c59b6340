// Package dispatch maps action requests onto playback control calls.
package dispatch

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/muse/internal/app/bgm"
	"github.com/osa030/muse/internal/app/coordinator"
	"github.com/osa030/muse/internal/domain/action"
	"github.com/osa030/muse/internal/domain/candidate"
	"github.com/osa030/muse/internal/domain/catalog"
	"github.com/osa030/muse/internal/domain/history"
	"github.com/osa030/muse/internal/domain/playlist"
	"github.com/osa030/muse/internal/domain/snapshot"
	"github.com/osa030/muse/internal/domain/track"
	"github.com/osa030/muse/internal/infra/auth"
	"github.com/osa030/muse/internal/infra/config"
)

// Player issues playback control calls.
type Player interface {
	Play(ctx context.Context, uri string, typ candidate.Type) error
	PlayTracks(ctx context.Context, uris []string) error
	Resume(ctx context.Context) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Seek(ctx context.Context, positionMs int) error
	SetVolume(ctx context.Context, percent int) error
	SetRepeat(ctx context.Context, mode string) error
	SetShuffle(ctx context.Context, on bool) error
	Queue(ctx context.Context, trackURI string) error
	Devices(ctx context.Context) ([]catalog.Device, error)
	Transfer(ctx context.Context, deviceID string) error
}

// Library reads and modifies the user's library.
type Library interface {
	Playlists(ctx context.Context) ([]playlist.Playlist, error)
	AddToPlaylist(ctx context.Context, playlistID, trackURI string) error
	SaveTrack(ctx context.Context, trackURI string) error
	SavedTracksRandom(ctx context.Context, count int) ([]track.Track, error)
}

// Resolver resolves spoken names. Implemented by coordinator.Coordinator.
type Resolver interface {
	Resolve(ctx context.Context, name, requestedType, originalHint string) (coordinator.Resolution, error)
	Record(uri string)
	History() *history.History
}

// SnapshotSource returns the last known player snapshot, or nil before the
// first successful poll. Implemented by playback.Monitor.
type SnapshotSource interface {
	Snapshot() *snapshot.Snapshot
}

// RandomSource picks tracks for play_random_music. Implemented by bgm.ProviderChain.
type RandomSource interface {
	GetCandidates(ctx context.Context, count int, seedTracks []track.Track, excludeURIs map[string]bool) ([]bgm.CandidateWithSource, error)
}

// Result is the outcome of one action.
type Result struct {
	Notes []string
	React bool // let the agent respond to the notes
}

// Dispatcher handles the actions of one session. Actions are serialized.
type Dispatcher struct {
	player   Player
	library  Library
	resolver Resolver
	state    SnapshotSource
	random   RandomSource
	cfg      *config.Config
	log      zerolog.Logger

	mu sync.Mutex
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.log = l
	}
}

// WithRandom sets the random music source. Without one play_random_music
// falls back to the user's liked songs.
func WithRandom(r RandomSource) Option {
	return func(d *Dispatcher) {
		d.random = r
	}
}

// New creates a dispatcher.
func New(player Player, library Library, resolver Resolver, state SnapshotSource, cfg *config.Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		player:   player,
		library:  library,
		resolver: resolver,
		state:    state,
		cfg:      cfg,
		log:      zlog.Logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch parses req and runs its handler. Only an unknown verb or a
// missing required argument is returned as an error; every other failure
// becomes a note.
func (d *Dispatcher) Dispatch(ctx context.Context, req action.Request) (Result, error) {
	cmd, issues, err := action.Parse(req)
	for _, issue := range issues {
		d.log.Debug().Msgf("dispatch: argument defaulted: verb=%s field=%s value=%q reason=%s", req.Verb, issue.Field, issue.Value, issue.Reason)
	}
	if err != nil {
		return Result{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.log.Info().Msgf("dispatch: handling: verb=%s", cmd.Verb())
	res, err := d.handle(ctx, cmd)
	if err != nil {
		d.log.Warn().Msgf("dispatch: failed: verb=%s error=%v", cmd.Verb(), err)
		return d.failure(err), nil
	}
	return res, nil
}

func (d *Dispatcher) handle(ctx context.Context, cmd action.Command) (Result, error) {
	switch c := cmd.(type) {
	case *action.TogglePlayback:
		return d.togglePlayback(ctx)
	case *action.PlayMusic:
		return d.playMusic(ctx, c)
	case *action.QueueTrack:
		return d.queueTrack(ctx, c)
	case *action.PlayRandomMusic:
		return d.playRandom(ctx)
	case *action.PlaySpecialPlaylist:
		return d.playSpecial(ctx, c)
	case *action.Volume:
		return d.volume(ctx, c)
	case *action.Seek:
		return d.seek(ctx, c)
	case *action.SkipNext:
		return d.ack(d.player.Next(ctx), "Skipped to the next track.")
	case *action.SkipPrevious:
		return d.ack(d.player.Previous(ctx), "Went back to the previous track.")
	case *action.RepeatMode:
		return d.ack(d.player.SetRepeat(ctx, c.Mode), "Repeat set to "+c.Mode+".")
	case *action.ShuffleMode:
		return d.ack(d.player.SetShuffle(ctx, c.On()), "Shuffle "+c.Mode+".")
	case *action.AddToFavorites:
		return d.addToFavorites(ctx)
	case *action.GetPlaylists:
		return d.getPlaylists(ctx)
	case *action.AddToPlaylist:
		return d.addToPlaylist(ctx, c)
	case *action.ListDevices:
		return d.listDevices(ctx)
	case *action.TransferToDevice:
		return d.transfer(ctx, c)
	default:
		return Result{}, errors.Wrapf(action.ErrUnknownVerb, "no handler for %s", cmd.Verb())
	}
}

func (d *Dispatcher) ack(err error, note string) (Result, error) {
	if err != nil {
		return Result{}, err
	}
	return Result{Notes: []string{note}}, nil
}

func (d *Dispatcher) note(code string) Result {
	return Result{Notes: []string{d.cfg.GetMessage(code)}}
}

// failure maps a handler error to its user-facing note.
func (d *Dispatcher) failure(err error) Result {
	switch {
	case errors.Is(err, auth.ErrAuth):
		return d.note(config.MsgAuthError)
	case errors.Is(err, coordinator.ErrNoMatch):
		return d.note(config.MsgNoMatch)
	case errors.Is(err, bgm.ErrNoCandidates):
		return d.note(config.MsgRandomFailed)
	default:
		return d.note(config.MsgGenericError)
	}
}

// current returns the cached snapshot when a device is active.
func (d *Dispatcher) current() (snapshot.Snapshot, bool) {
	s := d.state.Snapshot()
	if s == nil || !s.DeviceActive {
		return snapshot.Snapshot{}, false
	}
	return *s, true
}
