package loadtest

import (
	"math/rand/v2"
)

// misspellSuffix turns a known name into one the server must reject while
// staying close enough for a suggestion.
const misspellSuffix = "x"

// GenerateMatchups draws n random pairs of distinct fighters from names.
func GenerateMatchups(names []string, n int, unknownRatio float64, seed uint64) ([]Matchup, error) {
	if len(names) < 2 {
		return nil, ErrTooFewFighters
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	out := make([]Matchup, n)
	for i := range out {
		a := rng.IntN(len(names))
		b := rng.IntN(len(names) - 1)
		if b >= a {
			b++
		}
		m := Matchup{Fighter1: names[a], Fighter2: names[b]}
		if unknownRatio > 0 && rng.Float64() < unknownRatio {
			m.Fighter1 += misspellSuffix
			m.Unknown = true
		}
		out[i] = m
	}
	return out, nil
}
