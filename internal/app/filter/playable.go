package filter

import "github.com/osa030/muse/internal/domain/candidate"

// PlayableFilter drops tracks the service reports as not playable.
type PlayableFilter struct{}

func (f *PlayableFilter) Name() string {
	return "playable_filter"
}

func (f *PlayableFilter) Description() string {
	return "Rejects tracks explicitly marked as not playable"
}

func (f *PlayableFilter) ReturnCodes() []string {
	return []string{"not_playable"}
}

func (f *PlayableFilter) AppliesTo(t candidate.Type) bool {
	return t == candidate.TypeTrack
}

func (f *PlayableFilter) Check(c candidate.Candidate, market string) Result {
	if c.IsPlayable != nil && !*c.IsPlayable {
		return Reject("not_playable")
	}
	return Accept()
}

func init() {
	Register("playable_filter", func() Filter { return &PlayableFilter{} })
}
