package search

import (
	"math"
	"strings"
)

// MaxRelevance is the score of an exact name match.
const MaxRelevance int64 = math.MaxInt64

// Relevance scores how well name matches query, both already normalized:
//   - exact match: MaxRelevance
//   - prefix match: MaxRelevance-1
//   - substring at byte offset i: MaxRelevance-2-i, never below 1
//   - no match: 0
func Relevance(name, query string) int64 {
	if name == query {
		return MaxRelevance
	}
	if strings.HasPrefix(name, query) {
		return MaxRelevance - 1
	}
	i := strings.Index(name, query)
	if i < 0 {
		return 0
	}
	score := MaxRelevance - 2 - int64(i)
	if score < 1 {
		return 1
	}
	return score
}
