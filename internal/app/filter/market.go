package filter

import "github.com/osa030/muse/internal/domain/candidate"

// MarketFilter drops tracks, albums and shows unavailable in the caller's market.
type MarketFilter struct{}

func (f *MarketFilter) Name() string {
	return "market_filter"
}

func (f *MarketFilter) Description() string {
	return "Checks if the candidate is available in the caller's market"
}

func (f *MarketFilter) ReturnCodes() []string {
	return []string{"market_restriction"}
}

func (f *MarketFilter) AppliesTo(t candidate.Type) bool {
	switch t {
	case candidate.TypeTrack, candidate.TypeAlbum, candidate.TypeShow:
		return true
	default:
		return false
	}
}

func (f *MarketFilter) Check(c candidate.Candidate, market string) Result {
	if !c.IsAvailableInMarket(market) {
		return Reject("market_restriction")
	}
	return Accept()
}

func init() {
	Register("market_filter", func() Filter { return &MarketFilter{} })
}
