package filter

import "github.com/osa030/muse/internal/domain/candidate"

// URIFilter drops candidates without a URI. Search responses may contain
// null items, which decode to empty entries.
type URIFilter struct{}

func (f *URIFilter) Name() string {
	return "uri_filter"
}

func (f *URIFilter) Description() string {
	return "Rejects candidates without a playable URI"
}

func (f *URIFilter) ReturnCodes() []string {
	return []string{"missing_uri"}
}

func (f *URIFilter) AppliesTo(t candidate.Type) bool {
	return true
}

func (f *URIFilter) Check(c candidate.Candidate, market string) Result {
	if !c.Valid() {
		return Reject("missing_uri")
	}
	return Accept()
}

func init() {
	Register("uri_filter", func() Filter { return &URIFilter{} })
}
