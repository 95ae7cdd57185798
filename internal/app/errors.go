package service

import (
	"errors"
	"strconv"
	"strings"

	"github.com/ArnavTamrakar/Fight-predict/internal/domain/fighter"
)

var (
	// ErrMissingName is returned when either fighter name is blank.
	ErrMissingName = errors.New("fighter name is required")
	// ErrIncompleteFeatures is returned under the fail_fast policy when the
	// derived vector has NaN slots. No inference call is made.
	ErrIncompleteFeatures = errors.New("incomplete features")
)

// NotFoundError names every fighter that could not be resolved, with the
// closest known names for each.
type NotFoundError struct {
	Missing     []string
	Suggestions map[string][]string
}

func (e *NotFoundError) Error() string {
	quoted := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		quoted[i] = strconv.Quote(m)
	}
	return "fighter not found: " + strings.Join(quoted, ", ")
}

// Unwrap lets errors.Is match fighter.ErrNotFound.
func (e *NotFoundError) Unwrap() error { return fighter.ErrNotFound }
