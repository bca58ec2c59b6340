package dispatch

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const maxSuggestions = 3

// MatchName finds query among names, case-insensitively: an exact match
// first, then the first name containing query (or contained in it).
// When nothing matches it returns -1 and up to three close names.
func MatchName(query string, names []string) (int, []string) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return -1, nil
	}

	for i, name := range names {
		if strings.ToLower(strings.TrimSpace(name)) == q {
			return i, nil
		}
	}
	for i, name := range names {
		n := strings.ToLower(strings.TrimSpace(name))
		if n == "" {
			continue
		}
		if strings.Contains(n, q) || strings.Contains(q, n) {
			return i, nil
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(q, names)
	sort.Sort(ranks)
	suggestions := make([]string, 0, maxSuggestions)
	for _, r := range ranks {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, r.Target)
	}
	return -1, suggestions
}

func didYouMean(note string, suggestions []string) string {
	if len(suggestions) == 0 {
		return note
	}
	return note + " Did you mean: " + strings.Join(suggestions, ", ") + "?"
}
