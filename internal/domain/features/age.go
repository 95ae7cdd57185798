package features

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const daysPerYear = 365.25

var dobLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"Jan 2, 2006",
	"January 2, 2006",
	"01/02/2006",
	"2006/01/02",
	"2 Jan 2006",
}

// Clock returns the current instant.
type Clock func() time.Time

// ComputeAge returns whole years between dob and now, using the mean
// Gregorian year. The result depends on now; callers pin it in tests.
func ComputeAge(dob string, now time.Time) (int, error) {
	born, err := parseDate(dob)
	if err != nil {
		return 0, err
	}
	days := now.Sub(born).Hours() / 24
	return int(math.Floor(days / daysPerYear)), nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range dobLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
