// Package ranker picks the single best candidate for a query.
package ranker

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/muse/internal/domain/candidate"
	"github.com/osa030/muse/internal/domain/history"
)

// ErrNoCandidates is returned when nothing is left to rank.
var ErrNoCandidates = errors.New("no candidates")

// RandSource picks the final tie-break.
type RandSource interface {
	Intn(n int) int
}

// Scored is a candidate with its word-match score.
type Scored struct {
	candidate.Candidate
	Score int
}

// Ranker orders candidates and breaks ties at random, avoiding recent plays.
type Ranker struct {
	history *history.History
	rand    RandSource
}

// New creates a ranker. A nil rand uses a time-seeded source.
func New(h *history.History, r RandSource) *Ranker {
	if h == nil {
		h = history.New(history.DefaultSize)
	}
	if r == nil {
		r = &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
	}
	return &Ranker{history: h, rand: r}
}

// Score filters candidates by requestedType (empty keeps all), scores them
// against query and sorts them best first. The result is deterministic.
func (r *Ranker) Score(query string, cands []candidate.Candidate, requestedType candidate.Type) []Scored {
	scored := make([]Scored, 0, len(cands))
	for _, c := range cands {
		if requestedType != "" && c.Type != requestedType {
			continue
		}
		scored = append(scored, Scored{Candidate: c, Score: WordScore(query, c.FriendlyName)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if oa, ob := a.officialPlaylist(), b.officialPlaylist(); oa != ob {
			return oa
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.Popularity > b.Popularity
	})
	return scored
}

// Tied returns the candidates tied with the best one, minus recently played
// ones unless that would leave nothing. scored must be sorted by Score.
func (r *Ranker) Tied(scored []Scored) []Scored {
	if len(scored) == 0 {
		return nil
	}

	top := scored[0]
	var tied []Scored
	for _, s := range scored {
		if !s.tiedWith(top) {
			break
		}
		tied = append(tied, s)
	}

	fresh := make([]Scored, 0, len(tied))
	for _, s := range tied {
		if !r.history.Contains(s.URI) {
			fresh = append(fresh, s)
		}
	}
	if len(fresh) == 0 {
		return tied
	}
	return fresh
}

// Rank returns the best candidate for query.
func (r *Ranker) Rank(query string, cands []candidate.Candidate, requestedType candidate.Type) (candidate.Candidate, error) {
	scored := r.Score(query, cands, requestedType)
	if len(scored) == 0 {
		return candidate.Candidate{}, errors.Wrapf(ErrNoCandidates, "query %q type %q", query, requestedType)
	}

	tied := r.Tied(scored)
	choice := tied[r.rand.Intn(len(tied))]
	zlog.Debug().Msgf("ranked candidates: query=%q total=%d tied=%d choice=%s score=%d",
		query, len(scored), len(tied), choice.URI, choice.Score)
	return choice.Candidate, nil
}

func (s Scored) officialPlaylist() bool {
	return s.Type == candidate.TypePlaylist && s.IsOfficial
}

func (s Scored) tiedWith(o Scored) bool {
	return s.officialPlaylist() == o.officialPlaylist() &&
		s.Score == o.Score &&
		s.Priority == o.Priority &&
		s.Popularity == o.Popularity
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
