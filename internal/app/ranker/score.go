package ranker

import (
	"strings"

	"github.com/osa030/muse/internal/domain/candidate"
)

const (
	tokenPoints     = 10
	runPoints       = 5
	substringPoints = 50
	exactNamePoints = 5
)

// WordScore scores how well name matches query.
//
// Every query token found among the name's tokens earns tokenPoints. A token
// that directly follows the previous token's match position extends a run and
// earns runPoints times the run length; a miss resets the run. The whole query
// appearing in name earns substringPoints, and name equal to the query once its
// type label and " by"/" from" clause are stripped earns exactNamePoints.
func WordScore(query, name string) int {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0
	}
	lowerQuery := strings.ToLower(query)
	lowerName := strings.ToLower(name)

	positions := make(map[string][]int)
	for i, tok := range strings.Fields(lowerName) {
		positions[tok] = append(positions[tok], i)
	}

	score := 0
	run := 0
	var prev []int
	for _, tok := range strings.Fields(lowerQuery) {
		pos := positions[tok]
		if len(pos) == 0 {
			run = 0
			prev = nil
			continue
		}
		score += tokenPoints
		if follows(prev, pos) {
			run++
			score += runPoints * run
		} else {
			run = 0
		}
		prev = pos
	}

	if strings.Contains(lowerName, lowerQuery) {
		score += substringPoints
	}
	if strings.EqualFold(candidate.StripLabel(name), query) {
		score += exactNamePoints
	}
	return score
}

// follows reports whether any position in curr directly follows one in prev.
func follows(prev, curr []int) bool {
	for _, p := range prev {
		for _, c := range curr {
			if c == p+1 {
				return true
			}
		}
	}
	return false
}
