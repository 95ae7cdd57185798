package features

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Record is a parsed W-L-D (N NC) string. Fields are floats so that a
// non-numeric token can be carried as NaN instead of a silent zero.
type Record struct {
	Wins   float64
	Losses float64
	Draws  float64
	NC     float64
}

var ncPattern = regexp.MustCompile(`(?i)\(\s*(\d+)\s*NC\s*\)`)

// ParseRecord parses "10-2-1" or "10-2-1 (1 NC)". A token that is not an
// integer becomes NaN without an error. Fewer than three tokens returns
// ErrMalformedRecord with wins, losses and draws set to NaN.
func ParseRecord(s string) (Record, error) {
	r := Record{NC: parseNC(s)}

	clean := s
	if i := strings.IndexByte(clean, '('); i >= 0 {
		clean = clean[:i]
	}
	tokens := strings.Split(strings.TrimSpace(clean), "-")
	if len(tokens) < 3 {
		r.Wins, r.Losses, r.Draws = math.NaN(), math.NaN(), math.NaN()
		return r, fmt.Errorf("%w: %q", ErrMalformedRecord, s)
	}

	r.Wins = parseCount(tokens[0])
	r.Losses = parseCount(tokens[1])
	r.Draws = parseCount(tokens[2])
	return r, nil
}

func parseNC(s string) float64 {
	m := ncPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return math.NaN()
	}
	return float64(n)
}

func parseCount(tok string) float64 {
	n, err := strconv.Atoi(strings.TrimSpace(tok))
	if err != nil {
		return math.NaN()
	}
	return float64(n)
}
