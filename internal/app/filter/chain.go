package filter

import (
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/muse/internal/domain/candidate"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain(filters ...Filter) *Chain {
	return &Chain{
		filters: filters,
	}
}

// DefaultChain returns the chain applied to every search result.
func DefaultChain() *Chain {
	return NewChain(&URIFilter{}, &PlayableFilter{}, &MarketFilter{})
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the candidate.
// Filters are only applied if they declare they apply to the candidate type.
func (c *Chain) Execute(cand candidate.Candidate, market string) Result {
	for _, f := range c.filters {
		if !f.AppliesTo(cand.Type) {
			continue
		}

		result := f.Check(cand, market)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Apply returns the candidates accepted by the chain, preserving order.
func (c *Chain) Apply(cands []candidate.Candidate, market string) []candidate.Candidate {
	result := make([]candidate.Candidate, 0, len(cands))
	for _, cand := range cands {
		if r := c.Execute(cand, market); !r.Accepted {
			zlog.Debug().Msgf("candidate filtered: uri=%s name=%q code=%s", cand.URI, cand.FriendlyName, r.Code)
			continue
		}
		result = append(result, cand)
	}
	return result
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
