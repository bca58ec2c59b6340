// Package coordinator resolves a spoken name into one playable catalog entity.
package coordinator

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/muse/internal/app/ranker"
	"github.com/osa030/muse/internal/app/search"
	"github.com/osa030/muse/internal/domain/candidate"
	"github.com/osa030/muse/internal/domain/catalog"
	"github.com/osa030/muse/internal/domain/history"
	"github.com/osa030/muse/internal/infra/auth"
)

// TypeGenre is the pseudo-type searched as an official-first playlist lookup.
const TypeGenre = "genre"

// ErrNoMatch is returned when a name resolves to nothing playable.
var ErrNoMatch = errors.New("no matching results")

// Searcher searches every catalog category.
type Searcher interface {
	Search(ctx context.Context, text string, opts search.Options) []candidate.Candidate
}

// ProfileSource fetches the authenticated user's profile.
type ProfileSource interface {
	CurrentProfile(ctx context.Context) (catalog.Profile, error)
}

// Resolution is a resolved playable entity.
type Resolution struct {
	URI          string
	FriendlyName string
	Type         candidate.Type
}

// Coordinator composes search and ranking for one session. It owns the
// session's play history and caches the caller's profile.
type Coordinator struct {
	searcher Searcher
	profiles ProfileSource
	ranker   *ranker.Ranker
	history  *history.History
	market   string // configured override, empty to use the profile country

	mu      sync.Mutex
	profile *catalog.Profile
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMarket forces the market instead of the profile country.
func WithMarket(market string) Option {
	return func(c *Coordinator) {
		c.market = market
	}
}

// WithRand injects the tie-break source.
func WithRand(r ranker.RandSource) Option {
	return func(c *Coordinator) {
		c.ranker = ranker.New(c.history, r)
	}
}

// New creates a coordinator with a fresh history of historySize entries.
func New(searcher Searcher, profiles ProfileSource, historySize int, opts ...Option) *Coordinator {
	h := history.New(historySize)
	c := &Coordinator{
		searcher: searcher,
		profiles: profiles,
		history:  h,
		ranker:   ranker.New(h, nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve finds the best match for name. requestedType narrows the search
// ("genre" searches playlists); originalHint is the type the user asked for
// before any normalization upstream.
func (c *Coordinator) Resolve(ctx context.Context, name, requestedType, originalHint string) (Resolution, error) {
	query := Clean(name)
	if query == "" {
		return Resolution{}, errors.Wrapf(ErrNoMatch, "empty query from %q", name)
	}

	var typ candidate.Type
	hint := originalHint
	switch strings.ToLower(strings.TrimSpace(requestedType)) {
	case "":
	case TypeGenre:
		typ = candidate.TypePlaylist
		hint = TypeGenre
	default:
		t, ok := candidate.ParseType(requestedType)
		if !ok {
			zlog.Warn().Msgf("coordinator: ignoring unknown type: type=%s", requestedType)
		}
		typ = t
	}

	profile, err := c.Profile(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrAuth) {
			return Resolution{}, err
		}
		zlog.Warn().Msgf("coordinator: profile unavailable, searching without market: error=%v", err)
	}

	cands := c.searcher.Search(ctx, query, search.Options{
		Market:       c.marketFor(profile),
		UserID:       profile.UserID,
		OriginalType: hint,
	})

	choice, err := c.ranker.Rank(query, cands, typ)
	if err != nil {
		return Resolution{}, errors.Mark(errors.Wrapf(err, "failed to resolve %q", query), ErrNoMatch)
	}

	zlog.Info().Msgf("coordinator: resolved: query=%q type=%s uri=%s name=%q", query, typ, choice.URI, choice.FriendlyName)
	return Resolution{URI: choice.URI, FriendlyName: choice.FriendlyName, Type: choice.Type}, nil
}

// Record appends uri to the play history. Call only once playback was requested.
func (c *Coordinator) Record(uri string) {
	c.history.Add(uri)
}

// History returns the session's play history.
func (c *Coordinator) History() *history.History {
	return c.history
}

// Profile returns the cached profile, fetching it on first use.
// A failed fetch is not cached.
func (c *Coordinator) Profile(ctx context.Context) (catalog.Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.profile != nil {
		return *c.profile, nil
	}
	p, err := c.profiles.CurrentProfile(ctx)
	if err != nil {
		return catalog.Profile{}, errors.Wrap(err, "failed to fetch profile")
	}
	c.profile = &p
	zlog.Info().Msgf("coordinator: profile cached: user=%s market=%s", p.UserID, p.Market)
	return p, nil
}

func (c *Coordinator) marketFor(p catalog.Profile) string {
	if c.market != "" {
		return c.market
	}
	return p.Market
}

// Clean strips everything but letters, digits and spaces, and collapses whitespace.
func Clean(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
