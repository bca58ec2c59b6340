// Package search provides the candidate search engine that queries every
// catalog category concurrently and normalizes the hits into candidates.
package search

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/osa030/muse/internal/app/filter"
	"github.com/osa030/muse/internal/domain/candidate"
	"github.com/osa030/muse/internal/domain/catalog"
	"github.com/osa030/muse/internal/domain/playlist"
	"github.com/osa030/muse/internal/domain/track"
)

// DefaultLimit is the number of hits requested per category.
const DefaultLimit = 10

// Query is a single category search.
type Query struct {
	Text   string
	Market string // empty when unknown
	Limit  int
}

// Catalog defines the catalog searches needed by the engine.
type Catalog interface {
	SearchTracks(ctx context.Context, q Query) ([]track.Track, error)
	SearchAlbums(ctx context.Context, q Query) ([]catalog.Album, error)
	SearchArtists(ctx context.Context, q Query) ([]catalog.Artist, error)
	SearchPlaylists(ctx context.Context, q Query) ([]playlist.Playlist, error)
	SearchShows(ctx context.Context, q Query) ([]catalog.Show, error)
	SearchEpisodes(ctx context.Context, q Query) ([]catalog.Episode, error)
}

// Options carries the caller context of a search.
type Options struct {
	Market       string // caller's market, empty when unknown
	UserID       string // caller's user id, for playlist ownership
	OriginalType string // type requested before normalization, e.g. "genre"
}

// Engine searches all categories and returns the union of their candidates.
type Engine struct {
	catalog Catalog
	chain   *filter.Chain
	limit   int
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for album recency.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithChain overrides the filter chain.
func WithChain(chain *filter.Chain) Option {
	return func(e *Engine) {
		e.chain = chain
	}
}

// NewEngine creates a new search engine.
func NewEngine(c Catalog, limit int, opts ...Option) *Engine {
	if limit <= 0 {
		limit = DefaultLimit
	}
	e := &Engine{
		catalog: c,
		chain:   filter.DefaultChain(),
		limit:   limit,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search queries all categories concurrently and waits for every one.
// A failing category contributes no candidates and does not affect the others.
func (e *Engine) Search(ctx context.Context, text string, opts Options) []candidate.Candidate {
	q := Query{Text: text, Market: opts.Market, Limit: e.limit}
	types := candidate.Types()
	results := make([][]candidate.Candidate, len(types))

	var g errgroup.Group
	for i, t := range types {
		i, t := i, t
		g.Go(func() error {
			cands, err := e.extract(ctx, t, q, opts)
			if err != nil {
				zlog.Warn().Msgf("search category failed: type=%s query=%q error=%v", t, text, err)
				return nil
			}
			results[i] = e.chain.Apply(cands, opts.Market)
			return nil
		})
	}
	_ = g.Wait()

	var all []candidate.Candidate
	for i, cands := range results {
		zlog.Debug().Msgf("search category done: type=%s query=%q count=%d", types[i], text, len(cands))
		all = append(all, cands...)
	}
	return all
}

func (e *Engine) extract(ctx context.Context, t candidate.Type, q Query, opts Options) ([]candidate.Candidate, error) {
	switch t {
	case candidate.TypeTrack:
		hits, err := e.catalog.SearchTracks(ctx, q)
		return extractTracks(hits), err
	case candidate.TypeAlbum:
		hits, err := e.catalog.SearchAlbums(ctx, q)
		return extractAlbums(hits, e.now()), err
	case candidate.TypeArtist:
		hits, err := e.catalog.SearchArtists(ctx, q)
		return extractArtists(hits), err
	case candidate.TypePlaylist:
		hits, err := e.catalog.SearchPlaylists(ctx, q)
		return extractPlaylists(hits, opts.UserID, opts.OriginalType), err
	case candidate.TypeShow:
		hits, err := e.catalog.SearchShows(ctx, q)
		return extractShows(hits), err
	case candidate.TypeEpisode:
		hits, err := e.catalog.SearchEpisodes(ctx, q)
		return extractEpisodes(hits), err
	default:
		return nil, nil
	}
}
