package resolver

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// minContainedLen is the shortest query that gets the substring score
const minContainedLen = 3

// Similarity scores two normalized strings from 0 to 100.
//
// The score is the best of two measures:
//   - edit ratio: 100 * (1 - levenshtein(a, b) / max(len(a), len(b))), lengths in runes
//   - containment: when query is a substring of target (and at least 3 runes long),
//     60 + 30 * len(query) / len(target), so a prefix like "ibu" still finds "ibuprofen"
//
// Fractions are truncated, the result is an integer.
func Similarity(query, target string) int {
	if query == "" || target == "" {
		return 0
	}
	if query == target {
		return 100
	}

	ql := utf8.RuneCountInString(query)
	tl := utf8.RuneCountInString(target)
	longest := max(ql, tl)

	dist := levenshtein.ComputeDistance(query, target)
	ratio := 100 * (longest - dist) / longest

	if ql >= minContainedLen && ql < tl && strings.Contains(target, query) {
		contained := 60 + 30*ql/tl
		if contained > ratio {
			return contained
		}
	}

	return max(ratio, 0)
}
