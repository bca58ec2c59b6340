// Package filter provides the filter chain that drops search candidates
// the caller cannot play.
package filter

import "github.com/osa030/muse/internal/domain/candidate"

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "market_restriction", "not_playable"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter is the interface for candidate filters.
type Filter interface {
	// Name returns the filter name.
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// AppliesTo returns true if this filter should be applied to the given candidate type.
	AppliesTo(t candidate.Type) bool
	// Check performs the filter check against the caller's market.
	Check(c candidate.Candidate, market string) Result
}

// registry holds registered filter factories.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func() Filter {
	return registry
}
