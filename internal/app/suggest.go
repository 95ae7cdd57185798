package service

import (
	"cmp"
	"slices"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/ArnavTamrakar/Fight-predict/internal/domain/fighter"
)

const defaultSuggestionLimit = 3

// suggest returns up to limit known names closest to name by edit distance
// over folded keys. Candidates further than half the query length (at
// least 3 edits) are not offered.
func suggest(name string, known []string, limit int) []string {
	if limit <= 0 || len(known) == 0 {
		return nil
	}
	key := fighter.Key(name)
	maxDist := max(3, utf8.RuneCountInString(key)/2)

	type candidate struct {
		name string
		dist int
	}
	var cands []candidate
	for _, k := range known {
		d := levenshtein.ComputeDistance(key, fighter.Key(k))
		if d <= maxDist {
			cands = append(cands, candidate{name: k, dist: d})
		}
	}
	slices.SortStableFunc(cands, func(a, b candidate) int {
		return cmp.Compare(a.dist, b.dist)
	})
	if len(cands) > limit {
		cands = cands[:limit]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.name
	}
	return out
}
